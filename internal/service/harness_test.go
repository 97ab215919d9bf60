package service

import (
	"context"
	"strings"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/model"
)

const goodPassword = "Tr1cky-Harbor-92"

type harness struct {
	db       *memDB
	files    *memFiles
	bus      EventBus.Bus
	apps     *memApplications
	accounts *AccountService
	catalog  *CatalogService
	jobs     *JobService
	workflow *ApplicationService
	root     *access.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	files := newMemFiles()
	bus := EventBus.New()
	apps := &memApplications{db: db}
	auth := config.AuthConfig{
		JWTSecret:      "test-secret-0123456789",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
	policy := NewPasswordPolicy(config.PasswordConfig{MinLength: 8, MaxSimilarity: 0.7})
	return &harness{
		db:       db,
		files:    files,
		bus:      bus,
		apps:     apps,
		accounts: NewAccountService(memUsers{db}, memProfiles{db}, memTokens{db}, files, policy, auth),
		catalog:  NewCatalogService(memIndustries{db}, memLocations{db}, memCompanies{db}, files),
		jobs:     NewJobService(memJobs{db}, memCompanies{db}),
		workflow: NewApplicationService(apps, memJobs{db}, files, bus),
	}
}

func (h *harness) register(t *testing.T, username string, role model.Role) access.Actor {
	t.Helper()
	u, err := h.accounts.Register(context.Background(), RegisterInput{
		Username:        username,
		FirstName:       "Test",
		LastName:        "User",
		Email:           username + "@example.com",
		Password:        goodPassword,
		ConfirmPassword: goodPassword,
		Role:            string(role),
	})
	require.NoError(t, err)
	return access.Actor{ID: u.ID, Role: u.Role}
}

// admin inserts an admin directly; self-registration refuses the role.
func (h *harness) admin(t *testing.T) access.Actor {
	t.Helper()
	if h.root == nil {
		u := &model.User{Username: "root", Email: "root@example.com", Role: model.RoleAdmin, IsActive: true}
		require.NoError(t, memUsers{h.db}.Create(context.Background(), u))
		h.root = &access.Actor{ID: u.ID, Role: model.RoleAdmin}
	}
	return *h.root
}

func (h *harness) industry(t *testing.T, name string) *model.Industry {
	t.Helper()
	i, err := h.catalog.CreateIndustry(context.Background(), h.admin(t), IndustryInput{Name: name})
	require.NoError(t, err)
	return i
}

func (h *harness) location(t *testing.T, owner access.Actor, city string) *model.Location {
	t.Helper()
	l, err := h.catalog.CreateLocation(context.Background(), owner, LocationInput{Country: "Kenya", City: city})
	require.NoError(t, err)
	return l
}

func (h *harness) company(t *testing.T, owner access.Actor, name, industryID string, locationIDs ...string) *model.Company {
	t.Helper()
	c, err := h.catalog.CreateCompany(context.Background(), owner, CompanyInput{
		Name: name, IndustryID: industryID, LocationIDs: locationIDs,
	})
	require.NoError(t, err)
	return c
}

func (h *harness) job(t *testing.T, owner access.Actor, companyID, title string) *JobView {
	t.Helper()
	j, err := h.jobs.PostJob(context.Background(), owner, JobInput{
		CompanyID:       companyID,
		Title:           title,
		JobType:         string(model.JobFullTime),
		ExperienceLevel: string(model.LevelMid),
	})
	require.NoError(t, err)
	return j
}

// employerWithJob sets up an employer owning one location, company and job.
func (h *harness) employerWithJob(t *testing.T, username string) (access.Actor, *model.Company, *JobView) {
	t.Helper()
	e := h.register(t, username, model.RoleEmployer)
	l := h.location(t, e, "Nairobi")
	ind := h.industry(t, "Tech "+username)
	c := h.company(t, e, "Company "+username, ind.ID, l.ID)
	j := h.job(t, e, c.ID, "Go Engineer")
	return e, c, j
}

func resume(name string) *Upload {
	return &Upload{Filename: name, Content: strings.NewReader("%PDF-1.4")}
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	require.Error(t, err)
	return KindOf(err)
}
