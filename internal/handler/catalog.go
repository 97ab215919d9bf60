package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/service"
)

// CatalogService is the subset of *service.CatalogService served over HTTP.
type CatalogService interface {
	CreateIndustry(ctx context.Context, actor access.Actor, in service.IndustryInput) (*model.Industry, error)
	ListIndustries(ctx context.Context, actor access.Actor, q repository.ListQuery) (service.Page[model.Industry], error)
	GetIndustry(ctx context.Context, actor access.Actor, id string) (*model.Industry, error)
	UpdateIndustry(ctx context.Context, actor access.Actor, id string, in service.IndustryPatch) (*model.Industry, error)
	DeleteIndustry(ctx context.Context, actor access.Actor, id string) error

	CreateLocation(ctx context.Context, actor access.Actor, in service.LocationInput) (*model.Location, error)
	ListLocations(ctx context.Context, actor access.Actor, q repository.ListQuery) (service.Page[model.Location], error)
	GetLocation(ctx context.Context, actor access.Actor, id string) (*model.Location, error)
	UpdateLocation(ctx context.Context, actor access.Actor, id string, in service.LocationPatch) (*model.Location, error)
	DeleteLocation(ctx context.Context, actor access.Actor, id string) error

	CreateCompany(ctx context.Context, actor access.Actor, in service.CompanyInput) (*model.Company, error)
	ListCompanies(ctx context.Context, actor access.Actor, q repository.ListQuery) (service.Page[model.Company], error)
	GetCompany(ctx context.Context, actor access.Actor, id string) (*model.Company, error)
	UpdateCompany(ctx context.Context, actor access.Actor, id string, in service.CompanyPatch) (*model.Company, error)
	DeleteCompany(ctx context.Context, actor access.Actor, id string) error
	UploadCompanyLogo(ctx context.Context, actor access.Actor, id, filename string, r io.Reader) (*model.Company, error)
}

// CatalogHandler serves industries, locations and companies.
type CatalogHandler struct {
	catalog CatalogService
}

func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ----- DTOs -----

type industryReq struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active"`
}

type locationReq struct {
	Country  *string `json:"country" validate:"omitempty,max=100"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	Region   *string `json:"region" validate:"omitempty,max=100"`
	IsRemote *bool   `json:"is_remote"`
}

type companyReq struct {
	Name        *string   `json:"name" validate:"omitempty,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	WebsiteURL  *string   `json:"website_url" validate:"omitempty,url,max=200"`
	IndustryID  *string   `json:"industry" validate:"omitempty,max=36"`
	LocationIDs *[]string `json:"location_ids"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func required(pairs ...interface{}) error {
	fields := service.FieldErrors{}
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case *string:
			if v == nil || *v == "" {
				fields.Add(name, "This field is required.")
			}
		case *[]string:
			if v == nil || len(*v) == 0 {
				fields.Add(name, "This field is required.")
			}
		}
	}
	return fields.Err()
}

// ----- Industries -----

func (h *CatalogHandler) CreateIndustry(c echo.Context) error {
	var req industryReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required("name", req.Name); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	i, err := h.catalog.CreateIndustry(ctx, actor(c), service.IndustryInput{Name: *req.Name, Description: str(req.Description)})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, i)
}

func (h *CatalogHandler) ListIndustries(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.catalog.ListIndustries(ctx, actor(c), listQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CatalogHandler) GetIndustry(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	i, err := h.catalog.GetIndustry(ctx, actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, i)
}

func (h *CatalogHandler) UpdateIndustry(c echo.Context) error {
	var req industryReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	i, err := h.catalog.UpdateIndustry(ctx, actor(c), c.Param("id"), service.IndustryPatch{
		Name: req.Name, Description: req.Description, IsActive: req.IsActive,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, i)
}

func (h *CatalogHandler) DeleteIndustry(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.catalog.DeleteIndustry(ctx, actor(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- Locations -----

func (h *CatalogHandler) CreateLocation(c echo.Context) error {
	var req locationReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required("country", req.Country, "city", req.City); err != nil {
		return fail(c, err)
	}
	remote := req.IsRemote != nil && *req.IsRemote
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := h.catalog.CreateLocation(ctx, actor(c), service.LocationInput{
		Country: *req.Country, City: *req.City, Region: str(req.Region), IsRemote: remote,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *CatalogHandler) ListLocations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.catalog.ListLocations(ctx, actor(c), listQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CatalogHandler) GetLocation(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := h.catalog.GetLocation(ctx, actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *CatalogHandler) UpdateLocation(c echo.Context) error {
	var req locationReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := h.catalog.UpdateLocation(ctx, actor(c), c.Param("id"), service.LocationPatch{
		Country: req.Country, City: req.City, Region: req.Region, IsRemote: req.IsRemote,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *CatalogHandler) DeleteLocation(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.catalog.DeleteLocation(ctx, actor(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- Companies -----

func (h *CatalogHandler) CreateCompany(c echo.Context) error {
	var req companyReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if err := required("name", req.Name, "industry", req.IndustryID, "location_ids", req.LocationIDs); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	co, err := h.catalog.CreateCompany(ctx, actor(c), service.CompanyInput{
		Name:        *req.Name,
		Description: str(req.Description),
		WebsiteURL:  str(req.WebsiteURL),
		IndustryID:  *req.IndustryID,
		LocationIDs: *req.LocationIDs,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, co)
}

func (h *CatalogHandler) ListCompanies(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.catalog.ListCompanies(ctx, actor(c), listQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CatalogHandler) GetCompany(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	co, err := h.catalog.GetCompany(ctx, actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, co)
}

func (h *CatalogHandler) UpdateCompany(c echo.Context) error {
	var req companyReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	co, err := h.catalog.UpdateCompany(ctx, actor(c), c.Param("id"), service.CompanyPatch{
		Name:        req.Name,
		Description: req.Description,
		WebsiteURL:  req.WebsiteURL,
		IndustryID:  req.IndustryID,
		LocationIDs: req.LocationIDs,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, co)
}

func (h *CatalogHandler) DeleteCompany(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.catalog.DeleteCompany(ctx, actor(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadLogo takes a multipart "logo" part.
func (h *CatalogHandler) UploadLogo(c echo.Context) error {
	up, closeFn, err := formFile(c, "logo")
	if err != nil {
		return fail(c, err)
	}
	if up == nil {
		return fail(c, requiredFile("logo"))
	}
	defer closeFn()

	ctx, cancel := reqCtx(c)
	defer cancel()
	co, err := h.catalog.UploadCompanyLogo(ctx, actor(c), c.Param("id"), up.Filename, up.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, co)
}
