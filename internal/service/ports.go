package service

import (
	"context"
	"io"
	"time"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
)

type userStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	FindConflicts(ctx context.Context, username, email string, phone *string, excludeID string) (repository.UserConflicts, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateContact(ctx context.Context, u *model.User) error
	UpdateAccess(ctx context.Context, id string, role model.Role, active bool) error
	List(ctx context.Context, q repository.UserQuery) ([]model.User, int, error)
}

type profileStore interface {
	GetOrCreate(ctx context.Context, userID string) (*model.UserProfile, error)
	Update(ctx context.Context, p *model.UserProfile) error
}

type tokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type industryStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, i *model.Industry) error
	GetByID(ctx context.Context, id string) (*model.Industry, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Industry, int, error)
	Update(ctx context.Context, i *model.Industry) error
	Delete(ctx context.Context, id string) error
}

type locationStore interface {
	Create(ctx context.Context, l *model.Location) error
	GetByID(ctx context.Context, id string) (*model.Location, error)
	List(ctx context.Context, q repository.LocationQuery) ([]model.Location, int, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	OwnedIDs(ctx context.Context, ownerID string, ids []string) ([]string, error)
	Update(ctx context.Context, l *model.Location) error
	Delete(ctx context.Context, id, ownerID string) error
}

type companyStore interface {
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, c *model.Company, locationIDs []string) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	List(ctx context.Context, q repository.CompanyQuery) ([]model.Company, int, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, c *model.Company, locationIDs []string) error
	SetLogo(ctx context.Context, id, ownerID, logo string) error
	Delete(ctx context.Context, id, ownerID string) error
}

type jobStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, j *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, q repository.JobQuery) ([]model.Job, int, error)
	Update(ctx context.Context, j *model.Job) error
	Delete(ctx context.Context, id string) error
}

type applicationStore interface {
	Exists(ctx context.Context, jobID, applicantID string) (bool, error)
	Create(ctx context.Context, a *model.Application) error
	ListForApplicant(ctx context.Context, applicantID string, q repository.ListQuery) ([]model.ApplicationSummary, int, error)
	GetSummaryForApplicant(ctx context.Context, id, applicantID string) (*model.ApplicationSummary, error)
	ListForEmployer(ctx context.Context, q repository.ApplicationQuery) ([]model.ApplicationDetail, int, error)
	GetDetail(ctx context.Context, id string) (*model.ApplicationDetail, error)
	Review(ctx context.Context, id, reviewerID string, status model.Status, at time.Time) error
}

// fileStore is satisfied by *storage.LocalStore.
type fileStore interface {
	Save(ctx context.Context, dir, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Page is one page of a list result.
type Page[T any] struct {
	Items    []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func newPage[T any](items []T, total int, q repository.ListQuery) Page[T] {
	q = q.Normalize()
	return Page[T]{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}
}

func authorize(a access.Actor, actions ...access.Action) error {
	if err := access.Authorize(a, actions...); err != nil {
		return ErrInsufficientRole
	}
	return nil
}
