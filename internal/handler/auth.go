package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/middleware"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/service"
)

// AccountService is what the auth, profile and user handlers need from
// *service.AccountService.
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*service.Session, error)
	Refresh(ctx context.Context, raw string) (*service.Session, error)
	Logout(ctx context.Context, raw string, actor *access.Actor) error
	Me(ctx context.Context, actor access.Actor) (*model.User, error)
	UpdateMe(ctx context.Context, actor access.Actor, in service.UpdateMeInput) (*model.User, error)
	Profile(ctx context.Context, actor access.Actor) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, actor access.Actor, in service.ProfileInput) (*model.UserProfile, error)
	UploadProfileFile(ctx context.Context, actor access.Actor, kind service.ProfileFile, filename string, r io.Reader) (*model.UserProfile, error)
	ListUsers(ctx context.Context, actor access.Actor, q repository.UserQuery) (service.Page[model.User], error)
	GetUser(ctx context.Context, actor access.Actor, id string) (*model.User, error)
	UpdateUser(ctx context.Context, actor access.Actor, id string, in service.UpdateUserInput) (*model.User, error)
	DeactivateUser(ctx context.Context, actor access.Actor, id string) error
}

// AuthHandler serves registration, login and token endpoints.
type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// ----- DTOs -----

type registerReq struct {
	Username        string  `json:"username" validate:"required,max=150"`
	FirstName       string  `json:"first_name" validate:"required,max=150"`
	LastName        string  `json:"last_name" validate:"required,max=150"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Phone           *string `json:"phone_number" validate:"omitempty,max=13"`
	Password        string  `json:"password" validate:"required"`
	ConfirmPassword string  `json:"confirm_password" validate:"required"`
	Role            string  `json:"role" validate:"omitempty,oneof=employer job_seeker admin"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates the account.  Tokens are issued by a separate login.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.accounts.Register(ctx, service.RegisterInput{
		Username:        req.Username,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Login verifies the credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Logout revokes the given refresh token, or all of the caller's tokens when
// only a bearer token is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var who *access.Actor
	if a, ok := middleware.Actor(c); ok {
		who = &a
	}
	if err := h.accounts.Logout(ctx, req.RefreshToken, who); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
