package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/events"
	"github.com/iliyamo/job-board/internal/logger"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
)

const (
	msgAlreadyApplied = "You have already applied for this job."
	msgJobClosed      = "This job is no longer accepting applications."
)

// ApplicationService runs the application workflow: job seekers apply,
// employers review applications to their own jobs.
type ApplicationService struct {
	applications applicationStore
	jobs         jobStore
	files        fileStore
	bus          EventBus.Bus
	now          func() time.Time
}

func NewApplicationService(applications applicationStore, jobs jobStore, files fileStore, bus EventBus.Bus) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		jobs:         jobs,
		files:        files,
		bus:          bus,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Upload is a client file on its way to the blob store.
type Upload struct {
	Filename string
	Content  io.Reader
}

type ApplyInput struct {
	JobID               string
	CoverLetter         string
	Resume              *Upload
	AdditionalDocuments *Upload
	ExperienceYears     int
	ExpectedSalary      *float64
	AvailabilityDate    *time.Time
}

// Apply stores an application in pending state.  Applicant, status and the
// review stamp are never taken from the input.
func (s *ApplicationService) Apply(ctx context.Context, actor access.Actor, in ApplyInput) (*model.Application, error) {
	if err := authorize(actor, access.ApplyToJobs); err != nil {
		return nil, err
	}
	fields := FieldErrors{}
	if strings.TrimSpace(in.JobID) == "" {
		fields.Add("job", "This field is required.")
	}
	if in.Resume == nil || in.Resume.Content == nil {
		fields.Add("resume", "No file was submitted.")
	}
	checkYears(fields, "experience_years", in.ExperienceYears)
	checkMoney(fields, "expected_salary", in.ExpectedSalary)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	j, err := s.jobs.GetByID(ctx, in.JobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("job not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load job")
	}
	if !j.AcceptsApplications(s.now()) {
		return nil, fieldError("job", msgJobClosed)
	}

	applied, err := s.applications.Exists(ctx, j.ID, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "check application")
	}
	if applied {
		return nil, conflict(msgAlreadyApplied)
	}

	dir := fmt.Sprintf("application_documents/user_%s", actor.ID)
	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := s.files.Delete(ctx, key); err != nil {
				log.WithError(err).WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to remove %s", key)
			}
		}
	}

	resume, err := s.files.Save(ctx, dir, in.Resume.Filename, in.Resume.Content)
	if err != nil {
		return nil, errors.Wrap(err, "store resume")
	}
	stored = append(stored, resume)

	var extra string
	if in.AdditionalDocuments != nil && in.AdditionalDocuments.Content != nil {
		extra, err = s.files.Save(ctx, dir, in.AdditionalDocuments.Filename, in.AdditionalDocuments.Content)
		if err != nil {
			cleanup()
			return nil, errors.Wrap(err, "store additional documents")
		}
		stored = append(stored, extra)
	}

	a := &model.Application{
		JobID:               j.ID,
		ApplicantID:         actor.ID,
		Status:              model.StatusPending,
		CoverLetter:         in.CoverLetter,
		Resume:              resume,
		AdditionalDocuments: extra,
		ExperienceYears:     in.ExperienceYears,
		ExpectedSalary:      in.ExpectedSalary,
		AvailabilityDate:    in.AvailabilityDate,
	}
	if err := s.applications.Create(ctx, a); err != nil {
		cleanup()
		if repository.IsDuplicateKey(err, repository.KeyApplicationPair) {
			return nil, conflict(msgAlreadyApplied)
		}
		return nil, errors.Wrap(err, "create application")
	}

	s.bus.Publish(events.ApplicationSubmittedTopic, events.ApplicationEvent{
		Type:          events.ApplicationSubmittedTopic,
		ApplicationID: a.ID,
		JobID:         j.ID,
		JobTitle:      j.Title,
		ApplicantID:   actor.ID,
		EmployerID:    j.PostedBy,
		Status:        string(a.Status),
		OccurredAt:    a.AppliedOn,
	})
	return a, nil
}

// MyApplications lists the caller's applications, oldest first.
func (s *ApplicationService) MyApplications(ctx context.Context, actor access.Actor, q repository.ListQuery) (Page[model.ApplicationSummary], error) {
	if err := authorize(actor, access.ReadOwnApplications); err != nil {
		return Page[model.ApplicationSummary]{}, err
	}
	items, total, err := s.applications.ListForApplicant(ctx, actor.ID, q)
	if err != nil {
		return Page[model.ApplicationSummary]{}, errors.Wrap(err, "list own applications")
	}
	return newPage(items, total, q), nil
}

func (s *ApplicationService) MyApplication(ctx context.Context, actor access.Actor, id string) (*model.ApplicationSummary, error) {
	if err := authorize(actor, access.ReadOwnApplications); err != nil {
		return nil, err
	}
	a, err := s.applications.GetSummaryForApplicant(ctx, id, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("application not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load own application")
	}
	return a, nil
}

// EmployerQuery filters the applications an employer sees.
type EmployerQuery struct {
	repository.ListQuery
	Status string
	JobID  string
}

// JobApplications lists applications to the actor's jobs, or to every job for admins.
func (s *ApplicationService) JobApplications(ctx context.Context, actor access.Actor, q EmployerQuery) (Page[model.ApplicationDetail], error) {
	if err := authorize(actor, access.ReadJobApplications); err != nil {
		return Page[model.ApplicationDetail]{}, err
	}
	status := model.Status(q.Status)
	if status != "" && !status.Valid() {
		return Page[model.ApplicationDetail]{}, fieldError("status", fmt.Sprintf("%q is not a valid choice.", q.Status))
	}
	items, total, err := s.applications.ListForEmployer(ctx, repository.ApplicationQuery{
		ListQuery:  q.ListQuery,
		EmployerID: postedScope(actor),
		Status:     status,
		JobID:      q.JobID,
	})
	if err != nil {
		return Page[model.ApplicationDetail]{}, errors.Wrap(err, "list job applications")
	}
	return newPage(items, total, q.ListQuery), nil
}

// JobApplication reads one application.  Applications to other employers'
// jobs are reported as not found.
func (s *ApplicationService) JobApplication(ctx context.Context, actor access.Actor, id string) (*model.ApplicationDetail, error) {
	if err := authorize(actor, access.ReadJobApplications); err != nil {
		return nil, err
	}
	d, err := s.applications.GetDetail(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("application not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load application")
	}
	if !actor.IsAdmin() && !actor.Owns(d.JobPostedBy) {
		return nil, notFound("application not found")
	}
	return d, nil
}

// Review sets the status and stamps the reviewer and time in one update.
// Any status may follow any other.
func (s *ApplicationService) Review(ctx context.Context, actor access.Actor, id, status string) (*model.ApplicationDetail, error) {
	if err := authorize(actor, access.ReviewApplications); err != nil {
		return nil, err
	}
	st := model.Status(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, fieldError("status", fmt.Sprintf("%q is not a valid choice.", status))
	}

	now := s.now().Truncate(time.Second)
	err := s.applications.Review(ctx, id, actor.ID, st, now)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("application not found")
	case errors.Is(err, repository.ErrForbidden):
		return nil, forbidden("forbidden")
	case err != nil:
		return nil, errors.Wrap(err, "review application")
	}

	d, err := s.applications.GetDetail(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "reload application")
	}
	s.bus.Publish(events.ApplicationReviewedTopic, events.ApplicationEvent{
		Type:          events.ApplicationReviewedTopic,
		ApplicationID: d.ID,
		JobID:         d.JobID,
		JobTitle:      d.JobTitle,
		ApplicantID:   d.ApplicantID,
		EmployerID:    d.JobPostedBy,
		Status:        string(d.Status),
		ReviewedBy:    d.ReviewedBy,
		OccurredAt:    now,
	})
	return d, nil
}
