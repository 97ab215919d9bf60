package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/service"
)

type JobService interface {
	PostJob(ctx context.Context, actor access.Actor, in service.JobInput) (*service.JobView, error)
	ListJobs(ctx context.Context, actor access.Actor, q repository.JobQuery) (service.Page[service.JobView], error)
	GetJob(ctx context.Context, actor access.Actor, id string) (*service.JobView, error)
	UpdateJob(ctx context.Context, actor access.Actor, id string, in service.JobPatch) (*service.JobView, error)
	DeleteJob(ctx context.Context, actor access.Actor, id string) error
	ListAvailable(ctx context.Context, q repository.JobQuery) (service.Page[service.PublicJob], error)
	GetAvailable(ctx context.Context, id string) (*service.PublicJob, error)
}

// JobHandler serves the employer /postjobs resource and the public
// /availablejobs board.
type JobHandler struct {
	jobs JobService
}

func NewJobHandler(jobs JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type jobReq struct {
	CompanyID           *string  `json:"company" validate:"omitempty,max=36"`
	Title               *string  `json:"title" validate:"omitempty,max=200"`
	JobType             *string  `json:"job_type" validate:"omitempty,max=20"`
	ExperienceLevel     *string  `json:"experience_level" validate:"omitempty,max=20"`
	Description         *string  `json:"description"`
	Requirements        *string  `json:"requirements"`
	Responsibilities    *string  `json:"responsibilities"`
	SkillsRequired      *string  `json:"skills_required"`
	SalaryMin           *float64 `json:"salary_min" validate:"omitempty,gte=0,lte=99999999.99"`
	SalaryMax           *float64 `json:"salary_max" validate:"omitempty,gte=0,lte=99999999.99"`
	SalaryCurrency      *string  `json:"salary_currency" validate:"omitempty,max=10"`
	IsSalaryVisible     *bool    `json:"is_salary_visible"`
	IsActive            *bool    `json:"is_active"`
	ApplicationDeadline *string  `json:"application_deadline"`
}

// jobQuery reads the board filters: job_type, experience_level, industry
// (slug) and remote.
func jobQuery(c echo.Context) (repository.JobQuery, error) {
	remote, err := boolParam(c, "remote")
	if err != nil {
		return repository.JobQuery{}, err
	}
	return repository.JobQuery{
		ListQuery:       listQuery(c),
		JobType:         model.JobType(c.QueryParam("job_type")),
		ExperienceLevel: model.ExperienceLevel(c.QueryParam("experience_level")),
		IndustrySlug:    c.QueryParam("industry"),
		Remote:          remote,
	}, nil
}

func (h *JobHandler) Create(c echo.Context) error {
	var req jobReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required("company", req.CompanyID, "title", req.Title, "job_type", req.JobType,
		"experience_level", req.ExperienceLevel, "description", req.Description); err != nil {
		return fail(c, err)
	}
	deadline, err := parseDate("application_deadline", req.ApplicationDeadline)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	j, err := h.jobs.PostJob(ctx, actor(c), service.JobInput{
		CompanyID:           *req.CompanyID,
		Title:               *req.Title,
		JobType:             *req.JobType,
		ExperienceLevel:     *req.ExperienceLevel,
		Description:         *req.Description,
		Requirements:        str(req.Requirements),
		Responsibilities:    str(req.Responsibilities),
		SkillsRequired:      str(req.SkillsRequired),
		SalaryMin:           req.SalaryMin,
		SalaryMax:           req.SalaryMax,
		SalaryCurrency:      str(req.SalaryCurrency),
		IsSalaryVisible:     req.IsSalaryVisible,
		IsActive:            req.IsActive,
		ApplicationDeadline: deadline,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, j)
}

func (h *JobHandler) List(c echo.Context) error {
	q, err := jobQuery(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.jobs.ListJobs(ctx, actor(c), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *JobHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.jobs.GetJob(ctx, actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, j)
}

// Update serves PUT and PATCH alike; absent fields keep their value.  The
// company field is ignored.
func (h *JobHandler) Update(c echo.Context) error {
	var req jobReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	deadline, err := parseDate("application_deadline", req.ApplicationDeadline)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	j, err := h.jobs.UpdateJob(ctx, actor(c), c.Param("id"), service.JobPatch{
		Title:               req.Title,
		JobType:             req.JobType,
		ExperienceLevel:     req.ExperienceLevel,
		Description:         req.Description,
		Requirements:        req.Requirements,
		Responsibilities:    req.Responsibilities,
		SkillsRequired:      req.SkillsRequired,
		SalaryMin:           req.SalaryMin,
		SalaryMax:           req.SalaryMax,
		SalaryCurrency:      req.SalaryCurrency,
		IsSalaryVisible:     req.IsSalaryVisible,
		IsActive:            req.IsActive,
		ApplicationDeadline: deadline,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, j)
}

func (h *JobHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.jobs.DeleteJob(ctx, actor(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Available is the public, cacheable listing.
func (h *JobHandler) Available(c echo.Context) error {
	q, err := jobQuery(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.jobs.ListAvailable(ctx, q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *JobHandler) AvailableDetail(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	j, err := h.jobs.GetAvailable(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, j)
}
