package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/utils"
)

const msgCompanyFirst = "create a company first"

// JobService is the job registry: employer postings and the public board.
type JobService struct {
	jobs      jobStore
	companies companyStore
	now       func() time.Time
}

func NewJobService(jobs jobStore, companies companyStore) *JobService {
	return &JobService{jobs: jobs, companies: companies, now: func() time.Time { return time.Now().UTC() }}
}

// JobView is the owner's view of a job with the derived fields.
type JobView struct {
	model.Job
	SalaryRange string   `json:"salary_range"`
	IsExpired   bool     `json:"is_expired"`
	Skills      []string `json:"skills"`
}

func (s *JobService) view(j *model.Job) *JobView {
	return &JobView{Job: *j, SalaryRange: j.SalaryRange(), IsExpired: j.IsExpired(s.now()), Skills: j.Skills()}
}

// PublicJob is what anonymous visitors see.  Salary fields are omitted when
// the employer hid them.
type PublicJob struct {
	ID                  string                `json:"id"`
	Title               string                `json:"title"`
	Slug                string                `json:"slug"`
	CompanyName         string                `json:"company_name"`
	IndustryName        string                `json:"industry_name"`
	Locations           []model.Location      `json:"locations"`
	JobType             model.JobType         `json:"job_type"`
	ExperienceLevel     model.ExperienceLevel `json:"experience_level"`
	Description         string                `json:"description"`
	Requirements        string                `json:"requirements"`
	Responsibilities    string                `json:"responsibilities"`
	Skills              []string              `json:"skills"`
	SalaryRange         string                `json:"salary_range,omitempty"`
	SalaryMin           *float64              `json:"salary_min,omitempty"`
	SalaryMax           *float64              `json:"salary_max,omitempty"`
	SalaryCurrency      string                `json:"salary_currency,omitempty"`
	ApplicationDeadline *time.Time            `json:"application_deadline"`
	IsExpired           bool                  `json:"is_expired"`
	PostedOn            time.Time             `json:"posted_on"`
}

func (s *JobService) public(j model.Job) PublicJob {
	p := PublicJob{
		ID:                  j.ID,
		Title:               j.Title,
		Slug:                j.Slug,
		CompanyName:         j.CompanyName,
		IndustryName:        j.IndustryName,
		Locations:           j.Locations,
		JobType:             j.JobType,
		ExperienceLevel:     j.ExperienceLevel,
		Description:         j.Description,
		Requirements:        j.Requirements,
		Responsibilities:    j.Responsibilities,
		Skills:              j.Skills(),
		ApplicationDeadline: j.ApplicationDeadline,
		IsExpired:           j.IsExpired(s.now()),
		PostedOn:            j.PostedOn,
	}
	if j.IsSalaryVisible {
		p.SalaryRange = j.SalaryRange()
		p.SalaryMin = j.SalaryMin
		p.SalaryMax = j.SalaryMax
		p.SalaryCurrency = j.SalaryCurrency
	}
	return p
}

// JobInput is the writable part of a job.  Industry and locations are not
// here: they always come from the company.
type JobInput struct {
	CompanyID           string
	Title               string
	JobType             string
	ExperienceLevel     string
	Description         string
	Requirements        string
	Responsibilities    string
	SkillsRequired      string
	SalaryMin           *float64
	SalaryMax           *float64
	SalaryCurrency      string
	IsSalaryVisible     *bool
	IsActive            *bool
	ApplicationDeadline *time.Time
}

func checkJobFields(j *model.Job) error {
	fields := FieldErrors{}
	if strings.TrimSpace(j.Title) == "" {
		fields.Add("title", "This field may not be blank.")
	}
	if !j.JobType.Valid() {
		fields.Add("job_type", fmt.Sprintf("%q is not a valid choice.", j.JobType))
	}
	if !j.ExperienceLevel.Valid() {
		fields.Add("experience_level", fmt.Sprintf("%q is not a valid choice.", j.ExperienceLevel))
	}
	checkMoney(fields, "salary_min", j.SalaryMin)
	checkMoney(fields, "salary_max", j.SalaryMax)
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMax < *j.SalaryMin {
		fields.Add("salary_max", "Ensure this value is greater than or equal to salary_min.")
	}
	return fields.Err()
}

// PostJob creates a job under one of the employer's companies.  The job
// takes the company's industry and current locations.
func (s *JobService) PostJob(ctx context.Context, actor access.Actor, in JobInput) (*JobView, error) {
	if err := authorize(actor, access.PostJobs); err != nil {
		return nil, err
	}
	n, err := s.companies.CountByOwner(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count companies")
	}
	if n == 0 {
		return nil, forbidden(msgCompanyFirst)
	}

	c, err := s.companies.GetByID(ctx, in.CompanyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fieldError("company", "Invalid company - object does not exist.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load company")
	}
	if !actor.Owns(c.CreatedBy) {
		return nil, forbidden("forbidden")
	}

	j := &model.Job{
		Title:               strings.TrimSpace(in.Title),
		CompanyID:           c.ID,
		CompanyName:         c.Name,
		IndustryID:          c.IndustryID,
		IndustryName:        c.IndustryName,
		Locations:           append([]model.Location(nil), c.Locations...),
		JobType:             model.JobType(in.JobType),
		ExperienceLevel:     model.ExperienceLevel(in.ExperienceLevel),
		Description:         in.Description,
		Requirements:        in.Requirements,
		Responsibilities:    in.Responsibilities,
		SkillsRequired:      in.SkillsRequired,
		SalaryMin:           in.SalaryMin,
		SalaryMax:           in.SalaryMax,
		SalaryCurrency:      strings.TrimSpace(in.SalaryCurrency),
		IsSalaryVisible:     true,
		IsActive:            true,
		ApplicationDeadline: in.ApplicationDeadline,
		PostedBy:            actor.ID,
	}
	if j.SalaryCurrency == "" {
		j.SalaryCurrency = model.DefaultCurrency
	}
	if in.IsSalaryVisible != nil {
		j.IsSalaryVisible = *in.IsSalaryVisible
	}
	if in.IsActive != nil {
		j.IsActive = *in.IsActive
	}
	if err := checkJobFields(j); err != nil {
		return nil, err
	}

	base := utils.TruncateSlug(utils.Slugify(j.Title+"-"+c.Name), jobSlugMaxLen)
	err = insertWithSlug(ctx, base, "job", repository.KeyJobSlug, s.jobs.SlugExists,
		func(ctx context.Context, slug string) error {
			j.Slug = slug
			return s.jobs.Create(ctx, j)
		})
	if err != nil {
		return nil, errors.Wrap(err, "create job")
	}
	return s.view(j), nil
}

// postedScope limits listings to the actor's own jobs unless they are admin.
func postedScope(actor access.Actor) string {
	if actor.IsAdmin() {
		return ""
	}
	return actor.ID
}

func (s *JobService) ListJobs(ctx context.Context, actor access.Actor, q repository.JobQuery) (Page[JobView], error) {
	if err := authorize(actor, access.ReadJobs); err != nil {
		return Page[JobView]{}, err
	}
	q.PostedBy = postedScope(actor)
	q.ActiveOnly = false
	jobs, total, err := s.jobs.List(ctx, q)
	if err != nil {
		return Page[JobView]{}, errors.Wrap(err, "list jobs")
	}
	views := make([]JobView, len(jobs))
	for i := range jobs {
		views[i] = *s.view(&jobs[i])
	}
	return newPage(views, total, q.ListQuery), nil
}

func (s *JobService) loadJob(ctx context.Context, id string) (*model.Job, error) {
	j, err := s.jobs.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("job not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load job")
	}
	return j, nil
}

// GetJob reads one of the actor's jobs; other employers' jobs are not found.
func (s *JobService) GetJob(ctx context.Context, actor access.Actor, id string) (*JobView, error) {
	if err := authorize(actor, access.ReadJobs); err != nil {
		return nil, err
	}
	j, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(j.PostedBy) {
		return nil, notFound("job not found")
	}
	return s.view(j), nil
}

func (s *JobService) modifiableJob(ctx context.Context, actor access.Actor, id string) (*model.Job, error) {
	if err := authorize(actor, access.ModifyJobs); err != nil {
		return nil, err
	}
	j, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(j.PostedBy) {
		return nil, forbidden("forbidden")
	}
	return j, nil
}

// JobPatch leaves nil fields unchanged.
type JobPatch struct {
	Title               *string
	JobType             *string
	ExperienceLevel     *string
	Description         *string
	Requirements        *string
	Responsibilities    *string
	SkillsRequired      *string
	SalaryMin           *float64
	SalaryMax           *float64
	SalaryCurrency      *string
	IsSalaryVisible     *bool
	IsActive            *bool
	ApplicationDeadline *time.Time
}

// UpdateJob never touches company, industry, locations, slug or poster.
func (s *JobService) UpdateJob(ctx context.Context, actor access.Actor, id string, in JobPatch) (*JobView, error) {
	j, err := s.modifiableJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	if in.Title != nil {
		j.Title = strings.TrimSpace(*in.Title)
	}
	if in.JobType != nil {
		j.JobType = model.JobType(*in.JobType)
	}
	if in.ExperienceLevel != nil {
		j.ExperienceLevel = model.ExperienceLevel(*in.ExperienceLevel)
	}
	setString(&j.Description, in.Description)
	setString(&j.Requirements, in.Requirements)
	setString(&j.Responsibilities, in.Responsibilities)
	setString(&j.SkillsRequired, in.SkillsRequired)
	if in.SalaryMin != nil {
		j.SalaryMin = in.SalaryMin
	}
	if in.SalaryMax != nil {
		j.SalaryMax = in.SalaryMax
	}
	if in.SalaryCurrency != nil && strings.TrimSpace(*in.SalaryCurrency) != "" {
		j.SalaryCurrency = strings.TrimSpace(*in.SalaryCurrency)
	}
	if in.IsSalaryVisible != nil {
		j.IsSalaryVisible = *in.IsSalaryVisible
	}
	if in.IsActive != nil {
		j.IsActive = *in.IsActive
	}
	if in.ApplicationDeadline != nil {
		j.ApplicationDeadline = in.ApplicationDeadline
	}
	if err := checkJobFields(j); err != nil {
		return nil, err
	}

	if err := s.jobs.Update(ctx, j); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("job not found")
		}
		return nil, errors.Wrap(err, "update job")
	}
	return s.view(j), nil
}

// DeleteJob removes the job and, through the schema, its applications.
func (s *JobService) DeleteJob(ctx context.Context, actor access.Actor, id string) error {
	j, err := s.modifiableJob(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.jobs.Delete(ctx, j.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("job not found")
	}
	return errors.Wrap(err, "delete job")
}

// ListAvailable is the public board: active jobs only.
func (s *JobService) ListAvailable(ctx context.Context, q repository.JobQuery) (Page[PublicJob], error) {
	q.PostedBy = ""
	q.ActiveOnly = true
	jobs, total, err := s.jobs.List(ctx, q)
	if err != nil {
		return Page[PublicJob]{}, errors.Wrap(err, "list available jobs")
	}
	out := make([]PublicJob, len(jobs))
	for i, j := range jobs {
		out[i] = s.public(j)
	}
	return newPage(out, total, q.ListQuery), nil
}

// GetAvailable returns an active job; inactive jobs are not found.
func (s *JobService) GetAvailable(ctx context.Context, id string) (*PublicJob, error) {
	j, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !j.IsActive {
		return nil, notFound("job not found")
	}
	p := s.public(*j)
	return &p, nil
}
