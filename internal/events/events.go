// Package events declares the in-process domain events exchanged over the
// EventBus.  Subscribers forward them to the message broker and to metrics.
package events

import "time"

var (
	ApplicationSubmittedTopic = "application.submitted"
	ApplicationReviewedTopic  = "application.reviewed"
)

// ApplicationEvent is published after an application is stored or reviewed.
// It carries enough context for consumers to act without querying the database.
type ApplicationEvent struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"application_id"`
	JobID         string    `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	ApplicantID   string    `json:"applicant_id"`
	EmployerID    string    `json:"employer_id"`
	Status        string    `json:"status"`
	ReviewedBy    *string   `json:"reviewed_by,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
