package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/job-board/internal/model"
)

// ApplicationRepo stores job applications.  The (job_id, applicant_id)
// unique key backs the one-application-per-job rule.
type ApplicationRepo struct{ db *sql.DB }

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

func (r *ApplicationRepo) Exists(ctx context.Context, jobID, applicantID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications WHERE job_id = ? AND applicant_id = ?", jobID, applicantID).Scan(&n)
	return n > 0, err
}

// Create inserts a pending application.  A concurrent duplicate surfaces as
// a *DuplicateError on KeyApplicationPair.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	a.AppliedOn = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, job_id, applicant_id, status, cover_letter, resume, additional_documents,
			experience_years, expected_salary, availability_date, applied_on)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.JobID, a.ApplicantID, a.Status, a.CoverLetter, a.Resume, a.AdditionalDocuments,
		a.ExperienceYears, a.ExpectedSalary, a.AvailabilityDate, a.AppliedOn)
	return translate(err)
}

const summaryColumns = "a.id, a.job_id, j.title, c.name, a.status"

const summaryFrom = ` FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN companies c ON c.id = j.company_id`

// jobLocations renders the " | " joined location string for each job id.
func (r *ApplicationRepo) jobLocations(ctx context.Context, jobIDs []string) (map[string]*string, error) {
	locs, err := locationsFor(ctx, r.db, "job_locations", "job_id", lo.Uniq(jobIDs))
	if err != nil {
		return nil, err
	}
	return lo.MapValues(locs, func(l []model.Location, _ string) *string {
		return model.JoinLocations(l)
	}), nil
}

// ListForApplicant returns the applicant's own history, oldest first.
func (r *ApplicationRepo) ListForApplicant(ctx context.Context, applicantID string, q ListQuery) ([]model.ApplicationSummary, int, error) {
	q = q.Normalize()
	var w where
	w.add("a.applicant_id = ?", applicantID)
	w.keyword(q.Search, "j.title", "c.name")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+summaryFrom+" WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+summaryColumns+summaryFrom+" WHERE "+w.sql()+" ORDER BY a.applied_on ASC, a.id LIMIT ? OFFSET ?",
		append(w.args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out := []model.ApplicationSummary{}
	jobIDs := []string{}
	for rows.Next() {
		var (
			s     model.ApplicationSummary
			jobID string
		)
		if err := rows.Scan(&s.ID, &jobID, &s.JobTitle, &s.CompanyName, &s.Status); err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, s)
		jobIDs = append(jobIDs, jobID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	locs, err := r.jobLocations(ctx, jobIDs)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].JobLocation = locs[jobIDs[i]]
	}
	return out, total, nil
}

// GetSummaryForApplicant reports ErrNotFound for applications of other users.
func (r *ApplicationRepo) GetSummaryForApplicant(ctx context.Context, id, applicantID string) (*model.ApplicationSummary, error) {
	var (
		s     model.ApplicationSummary
		jobID string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT "+summaryColumns+summaryFrom+" WHERE a.id = ? AND a.applicant_id = ?", id, applicantID).
		Scan(&s.ID, &jobID, &s.JobTitle, &s.CompanyName, &s.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	locs, err := r.jobLocations(ctx, []string{jobID})
	if err != nil {
		return nil, err
	}
	s.JobLocation = locs[jobID]
	return &s, nil
}

const detailColumns = `a.id, a.job_id, j.title, j.posted_by, a.applicant_id,
	u.first_name, u.last_name, u.email, a.status, a.applied_on, a.experience_years,
	a.expected_salary, a.cover_letter, a.resume, a.additional_documents, a.reviewed_by, a.reviewed_at`

const detailFrom = ` FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN users u ON u.id = a.applicant_id`

func scanDetail(row rowScanner) (*model.ApplicationDetail, error) {
	var (
		d          model.ApplicationDetail
		first      string
		last       string
		salary     sql.NullFloat64
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&d.ID, &d.JobID, &d.JobTitle, &d.JobPostedBy, &d.ApplicantID,
		&first, &last, &d.ApplicantEmail, &d.Status, &d.AppliedOn, &d.ExperienceYears,
		&salary, &d.CoverLetter, &d.Resume, &d.AdditionalDocuments, &reviewedBy, &reviewedAt); err != nil {
		return nil, err
	}
	d.ApplicantName = model.User{FirstName: first, LastName: last}.FullName()
	if salary.Valid {
		d.ExpectedSalary = &salary.Float64
	}
	if reviewedBy.Valid {
		d.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		d.ReviewedAt = &t
	}
	return &d, nil
}

// ApplicationQuery filters the employer view.  An empty EmployerID lists
// applications to every job.
type ApplicationQuery struct {
	ListQuery
	EmployerID string
	Status     model.Status
	JobID      string
}

// ListForEmployer returns applications to the employer's jobs, newest first.
func (r *ApplicationRepo) ListForEmployer(ctx context.Context, q ApplicationQuery) ([]model.ApplicationDetail, int, error) {
	q.ListQuery = q.ListQuery.Normalize()
	var w where
	if q.EmployerID != "" {
		w.add("j.posted_by = ?", q.EmployerID)
	}
	if q.Status != "" {
		w.add("a.status = ?", q.Status)
	}
	if q.JobID != "" {
		w.add("a.job_id = ?", q.JobID)
	}
	w.keyword(q.Search, "j.title", "u.username", "u.first_name", "u.last_name", "u.email")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+detailFrom+" WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+detailColumns+detailFrom+" WHERE "+w.sql()+" ORDER BY a.applied_on DESC, a.id LIMIT ? OFFSET ?",
		append(w.args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out := []model.ApplicationDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	jobIDs := lo.Map(out, func(d model.ApplicationDetail, _ int) string { return d.JobID })
	locs, err := r.jobLocations(ctx, jobIDs)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].JobLocation = locs[out[i].JobID]
	}
	return out, total, nil
}

// GetDetail loads one application with JobPostedBy set so callers can
// apply the ownership rule.
func (r *ApplicationRepo) GetDetail(ctx context.Context, id string) (*model.ApplicationDetail, error) {
	d, err := scanDetail(r.db.QueryRowContext(ctx, "SELECT "+detailColumns+detailFrom+" WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	locs, err := r.jobLocations(ctx, []string{d.JobID})
	if err != nil {
		return nil, err
	}
	d.JobLocation = locs[d.JobID]
	return d, nil
}

// Review locks the application row, checks that reviewerID posted the job
// and stamps status, reviewed_by and reviewed_at in a single UPDATE.
func (r *ApplicationRepo) Review(ctx context.Context, id, reviewerID string, status model.Status, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var postedBy string
	err = tx.QueryRowContext(ctx,
		`SELECT j.posted_by FROM applications a JOIN jobs j ON j.id = a.job_id
		 WHERE a.id = ? FOR UPDATE`, id).Scan(&postedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if postedBy != reviewerID {
		return ErrForbidden
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE applications SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?",
		status, reviewerID, at.UTC(), id); err != nil {
		return err
	}
	return tx.Commit()
}
