package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/service"
)

type ApplicationService interface {
	Apply(ctx context.Context, actor access.Actor, in service.ApplyInput) (*model.Application, error)
	MyApplications(ctx context.Context, actor access.Actor, q repository.ListQuery) (service.Page[model.ApplicationSummary], error)
	MyApplication(ctx context.Context, actor access.Actor, id string) (*model.ApplicationSummary, error)
	JobApplications(ctx context.Context, actor access.Actor, q service.EmployerQuery) (service.Page[model.ApplicationDetail], error)
	JobApplication(ctx context.Context, actor access.Actor, id string) (*model.ApplicationDetail, error)
	Review(ctx context.Context, actor access.Actor, id, status string) (*model.ApplicationDetail, error)
}

// ApplicationHandler serves /apply-job and both application histories.
type ApplicationHandler struct {
	applications ApplicationService
}

func NewApplicationHandler(applications ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

type applyForm struct {
	JobID            string `form:"job" validate:"required,max=36"`
	CoverLetter      string `form:"cover_letter" validate:"max=10000"`
	ExperienceYears  string `form:"experience_years"`
	ExpectedSalary   string `form:"expected_salary"`
	AvailabilityDate string `form:"availability_date"`
}

type reviewReq struct {
	Status string `json:"status" validate:"required"`
}

// numbers parses the optional numeric form fields, collecting every failure.
func (f applyForm) numbers() (int, *float64, error) {
	fields := service.FieldErrors{}
	years := 0
	if s := strings.TrimSpace(f.ExperienceYears); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			fields.Add("experience_years", "A valid integer is required.")
		}
		years = n
	}
	var salary *float64
	if s := strings.TrimSpace(f.ExpectedSalary); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			fields.Add("expected_salary", "A valid number is required.")
		}
		salary = &v
	}
	return years, salary, fields.Err()
}

// Apply takes a multipart form with a required "resume" part and an optional
// "additional_documents" part.
func (h *ApplicationHandler) Apply(c echo.Context) error {
	var form applyForm
	if err := bind(c, &form); err != nil {
		return fail(c, err)
	}
	years, salary, err := form.numbers()
	if err != nil {
		return fail(c, err)
	}
	avail, err := parseDate("availability_date", &form.AvailabilityDate)
	if err != nil {
		return fail(c, err)
	}

	resume, closeResume, err := formFile(c, "resume")
	if err != nil {
		return fail(c, err)
	}
	defer closeResume()
	extra, closeExtra, err := formFile(c, "additional_documents")
	if err != nil {
		return fail(c, err)
	}
	defer closeExtra()

	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.applications.Apply(ctx, actor(c), service.ApplyInput{
		JobID:               form.JobID,
		CoverLetter:         form.CoverLetter,
		Resume:              resume,
		AdditionalDocuments: extra,
		ExperienceYears:     years,
		ExpectedSalary:      salary,
		AvailabilityDate:    avail,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *ApplicationHandler) MyHistory(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.applications.MyApplications(ctx, actor(c), listQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ApplicationHandler) MyApplication(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.applications.MyApplication(ctx, actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// JobHistory lists applications to the caller's jobs, filtered by ?status=
// and ?job=.
func (h *ApplicationHandler) JobHistory(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.applications.JobApplications(ctx, actor(c), service.EmployerQuery{
		ListQuery: listQuery(c),
		Status:    c.QueryParam("status"),
		JobID:     c.QueryParam("job"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ApplicationHandler) JobApplication(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.applications.JobApplication(ctx, actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Review accepts PUT or PATCH.  Only status is read from the body.
func (h *ApplicationHandler) Review(c echo.Context) error {
	var req reviewReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.applications.Review(ctx, actor(c), c.Param("id"), req.Status)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
