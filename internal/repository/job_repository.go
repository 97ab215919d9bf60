package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/job-board/internal/model"
)

// JobRepo stores job postings.  Each job carries its own copy of the
// company's industry and locations taken at creation time.
type JobRepo struct{ db *sql.DB }

func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{db: db} }

const jobColumns = `j.id, j.title, j.slug, j.company_id, c.name, j.industry_id, i.name,
	j.job_type, j.experience_level, j.description, j.requirements, j.responsibilities,
	j.skills_required, j.salary_min, j.salary_max, j.salary_currency, j.is_salary_visible,
	j.is_active, j.application_deadline, j.posted_by, j.posted_on, j.updated_on`

const jobFrom = ` FROM jobs j
	JOIN companies c ON c.id = j.company_id
	JOIN industries i ON i.id = j.industry_id`

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		j              model.Job
		salMin, salMax sql.NullFloat64
		deadline       sql.NullTime
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Slug, &j.CompanyID, &j.CompanyName, &j.IndustryID, &j.IndustryName,
		&j.JobType, &j.ExperienceLevel, &j.Description, &j.Requirements, &j.Responsibilities,
		&j.SkillsRequired, &salMin, &salMax, &j.SalaryCurrency, &j.IsSalaryVisible,
		&j.IsActive, &deadline, &j.PostedBy, &j.PostedOn, &j.UpdatedOn); err != nil {
		return nil, err
	}
	if salMin.Valid {
		j.SalaryMin = &salMin.Float64
	}
	if salMax.Valid {
		j.SalaryMax = &salMax.Float64
	}
	if deadline.Valid {
		d := deadline.Time
		j.ApplicationDeadline = &d
	}
	return &j, nil
}

func (r *JobRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE slug = ?", slug).Scan(&n)
	return n > 0, err
}

// Create inserts the job and its location snapshot in one transaction.
func (r *JobRepo) Create(ctx context.Context, j *model.Job) error {
	if j.ID == "" {
		j.ID = newID()
	}
	now := time.Now().UTC().Truncate(time.Second)
	j.PostedOn, j.UpdatedOn = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (id, title, slug, company_id, industry_id, job_type, experience_level,
			description, requirements, responsibilities, skills_required, salary_min, salary_max,
			salary_currency, is_salary_visible, is_active, application_deadline, posted_by, posted_on, updated_on)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		j.ID, j.Title, j.Slug, j.CompanyID, j.IndustryID, j.JobType, j.ExperienceLevel,
		j.Description, j.Requirements, j.Responsibilities, j.SkillsRequired, j.SalaryMin, j.SalaryMax,
		j.SalaryCurrency, j.IsSalaryVisible, j.IsActive, j.ApplicationDeadline, j.PostedBy, j.PostedOn, j.UpdatedOn); err != nil {
		return translate(err)
	}
	ids := make([]string, len(j.Locations))
	for i, l := range j.Locations {
		ids[i] = l.ID
	}
	if err := linkLocations(ctx, tx, "job_locations", "job_id", j.ID, ids); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, "SELECT "+jobColumns+jobFrom+" WHERE j.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	locs, err := locationsFor(ctx, r.db, "job_locations", "job_id", []string{j.ID})
	if err != nil {
		return nil, err
	}
	j.Locations = nonNil(locs[j.ID])
	return j, nil
}

// JobQuery filters job listings.  PostedBy scopes to one employer; an empty
// value lists every employer's jobs.  ActiveOnly is set for public listings.
type JobQuery struct {
	ListQuery
	PostedBy        string
	ActiveOnly      bool
	JobType         model.JobType
	ExperienceLevel model.ExperienceLevel
	IndustrySlug    string
	Remote          *bool
}

func (q JobQuery) where() where {
	var w where
	if q.PostedBy != "" {
		w.add("j.posted_by = ?", q.PostedBy)
	}
	if q.ActiveOnly {
		w.add("j.is_active = 1")
	}
	if q.JobType != "" {
		w.add("j.job_type = ?", q.JobType)
	}
	if q.ExperienceLevel != "" {
		w.add("j.experience_level = ?", q.ExperienceLevel)
	}
	if q.IndustrySlug != "" {
		w.add("i.slug = ?", q.IndustrySlug)
	}
	if q.Remote != nil {
		w.add("EXISTS (SELECT 1 FROM job_locations jl JOIN locations l ON l.id = jl.location_id WHERE jl.job_id = j.id AND l.is_remote = ?)", *q.Remote)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		w.add(`(LOWER(j.title) LIKE ? OR LOWER(j.slug) LIKE ? OR LOWER(j.description) LIKE ?
			OR LOWER(j.requirements) LIKE ? OR LOWER(j.responsibilities) LIKE ?
			OR LOWER(j.skills_required) LIKE ? OR LOWER(j.experience_level) LIKE ? OR LOWER(i.name) LIKE ?
			OR EXISTS (SELECT 1 FROM job_locations jl JOIN locations l ON l.id = jl.location_id
				WHERE jl.job_id = j.id AND (LOWER(l.country) LIKE ? OR LOWER(l.city) LIKE ? OR LOWER(l.region) LIKE ?)))`,
			like, like, like, like, like, like, like, like, like, like, like)
	}
	return w
}

// List returns jobs newest first with their locations attached.
func (r *JobRepo) List(ctx context.Context, q JobQuery) ([]model.Job, int, error) {
	q.ListQuery = q.ListQuery.Normalize()
	w := q.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+jobFrom+" WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+jobColumns+jobFrom+" WHERE "+w.sql()+" ORDER BY j.posted_on DESC, j.id LIMIT ? OFFSET ?",
		append(w.args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out := []model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	locs, err := locationsFor(ctx, r.db, "job_locations", "job_id", ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Locations = nonNil(locs[out[i].ID])
	}
	return out, total, nil
}

// Update rewrites the editable columns.  Industry, locations, slug and
// posted_by are never touched.  The row is matched by id only; callers
// check ownership first.
func (r *JobRepo) Update(ctx context.Context, j *model.Job) error {
	j.UpdatedOn = time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET title = ?, job_type = ?, experience_level = ?, description = ?,
			requirements = ?, responsibilities = ?, skills_required = ?, salary_min = ?, salary_max = ?,
			salary_currency = ?, is_salary_visible = ?, is_active = ?, application_deadline = ?, updated_on = ?
		 WHERE id = ?`,
		j.Title, j.JobType, j.ExperienceLevel, j.Description,
		j.Requirements, j.Responsibilities, j.SkillsRequired, j.SalaryMin, j.SalaryMax,
		j.SalaryCurrency, j.IsSalaryVisible, j.IsActive, j.ApplicationDeadline, j.UpdatedOn, j.ID)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}

func (r *JobRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}
