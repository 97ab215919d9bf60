package model

import "time"

// Status is the review state of an application.  Any status may move to any
// other status; there are no terminal states.
type Status string

const (
	StatusPending     Status = "pending"
	StatusReviewed    Status = "reviewed"
	StatusShortlisted Status = "shortlisted"
	StatusInterview   Status = "interview"
	StatusRejected    Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusInterview, StatusRejected:
		return true
	}
	return false
}

// Application mirrors the `applications` table.  At most one row exists per
// (JobID, ApplicantID).
type Application struct {
	ID                  string     `json:"id"`
	JobID               string     `json:"job"`
	ApplicantID         string     `json:"applicant"`
	Status              Status     `json:"status"`
	CoverLetter         string     `json:"cover_letter"`
	Resume              string     `json:"resume"`
	AdditionalDocuments string     `json:"additional_documents"`
	ExperienceYears     int        `json:"experience_years"`
	ExpectedSalary      *float64   `json:"expected_salary"`
	AvailabilityDate    *time.Time `json:"availability_date"`
	ReviewedBy          *string    `json:"reviewed_by"`
	ReviewedAt          *time.Time `json:"reviewed_at"`
	AppliedOn           time.Time  `json:"applied_on"`
}

// ApplicationSummary is what an applicant sees in their history.  It never
// carries the cover letter or resume.
type ApplicationSummary struct {
	ID          string  `json:"id"`
	JobTitle    string  `json:"job_title"`
	CompanyName string  `json:"company_name"`
	JobLocation *string `json:"job_location"`
	Status      Status  `json:"status"`
}

// ApplicationDetail is the employer view of an application to one of their jobs.
type ApplicationDetail struct {
	ID                  string     `json:"id"`
	JobID               string     `json:"job"`
	JobTitle            string     `json:"job_title"`
	JobPostedBy         string     `json:"-"`
	ApplicantID         string     `json:"-"`
	ApplicantName       string     `json:"applicant_name"`
	ApplicantEmail      string     `json:"applicant_email"`
	JobLocation         *string    `json:"job_location"`
	Status              Status     `json:"status"`
	AppliedOn           time.Time  `json:"applied_on"`
	ExperienceYears     int        `json:"experience_years"`
	ExpectedSalary      *float64   `json:"expected_salary"`
	CoverLetter         string     `json:"cover_letter"`
	Resume              string     `json:"resume"`
	AdditionalDocuments string     `json:"additional_documents"`
	ReviewedBy          *string    `json:"reviewed_by"`
	ReviewedAt          *time.Time `json:"reviewed_at"`
}
