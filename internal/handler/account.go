package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/service"
)

// AccountHandler serves /me, /me/profile and the admin /users endpoints.
type AccountHandler struct {
	accounts AccountService
}

func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type updateMeReq struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Phone     *string `json:"phone_number" validate:"omitempty,max=13"`
}

type profileReq struct {
	Bio             *string `json:"bio" validate:"omitempty,max=2000"`
	LinkedInURL     *string `json:"linkedin_url" validate:"omitempty,url,max=200"`
	Skills          *string `json:"skills" validate:"omitempty,max=2000"`
	ExperienceYears *int    `json:"experience_years" validate:"omitempty,gte=0,lte=100"`
}

type updateUserReq struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func (h *AccountHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.accounts.Me(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) UpdateMe(c echo.Context) error {
	var req updateMeReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.accounts.UpdateMe(ctx, actor(c), service.UpdateMeInput{
		FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.accounts.Profile(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.accounts.UpdateProfile(ctx, actor(c), service.ProfileInput{
		Bio: req.Bio, LinkedInURL: req.LinkedInURL, Skills: req.Skills, ExperienceYears: req.ExperienceYears,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// UploadPicture and UploadResume take a multipart "file" part.
func (h *AccountHandler) UploadPicture(c echo.Context) error {
	return h.upload(c, service.ProfilePicture)
}

func (h *AccountHandler) UploadResume(c echo.Context) error {
	return h.upload(c, service.ProfileResume)
}

func (h *AccountHandler) upload(c echo.Context, kind service.ProfileFile) error {
	up, closeFn, err := formFile(c, "file")
	if err != nil {
		return fail(c, err)
	}
	if up == nil {
		return fail(c, requiredFile("file"))
	}
	defer closeFn()

	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.accounts.UploadProfileFile(ctx, actor(c), kind, up.Filename, up.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ListUsers supports ?search=, ?role= and ?is_active=.
func (h *AccountHandler) ListUsers(c echo.Context) error {
	active, err := boolParam(c, "is_active")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.accounts.ListUsers(ctx, actor(c), repository.UserQuery{
		ListQuery: listQuery(c),
		Role:      model.Role(c.QueryParam("role")),
		IsActive:  active,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *AccountHandler) GetUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.accounts.GetUser(ctx, actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) UpdateUser(c echo.Context) error {
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.accounts.UpdateUser(ctx, actor(c), c.Param("id"), service.UpdateUserInput{
		Role: req.Role, IsActive: req.IsActive,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) DeactivateUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.accounts.DeactivateUser(ctx, actor(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
