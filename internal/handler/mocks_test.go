package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/service"
)

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, username, password string) (*service.Session, error) {
	args := m.Called(username, password)
	s, _ := args.Get(0).(*service.Session)
	return s, args.Error(1)
}

func (m *mockAccounts) Refresh(ctx context.Context, raw string) (*service.Session, error) {
	args := m.Called(raw)
	s, _ := args.Get(0).(*service.Session)
	return s, args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, raw string, actor *access.Actor) error {
	return m.Called(raw, actor).Error(0)
}

func (m *mockAccounts) Me(ctx context.Context, actor access.Actor) (*model.User, error) {
	args := m.Called(actor)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) UpdateMe(ctx context.Context, actor access.Actor, in service.UpdateMeInput) (*model.User, error) {
	args := m.Called(actor, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) Profile(ctx context.Context, actor access.Actor) (*model.UserProfile, error) {
	args := m.Called(actor)
	p, _ := args.Get(0).(*model.UserProfile)
	return p, args.Error(1)
}

func (m *mockAccounts) UpdateProfile(ctx context.Context, actor access.Actor, in service.ProfileInput) (*model.UserProfile, error) {
	args := m.Called(actor, in)
	p, _ := args.Get(0).(*model.UserProfile)
	return p, args.Error(1)
}

func (m *mockAccounts) UploadProfileFile(ctx context.Context, actor access.Actor, kind service.ProfileFile, filename string, r io.Reader) (*model.UserProfile, error) {
	args := m.Called(actor, kind, filename)
	p, _ := args.Get(0).(*model.UserProfile)
	return p, args.Error(1)
}

func (m *mockAccounts) ListUsers(ctx context.Context, actor access.Actor, q repository.UserQuery) (service.Page[model.User], error) {
	args := m.Called(actor, q)
	return args.Get(0).(service.Page[model.User]), args.Error(1)
}

func (m *mockAccounts) GetUser(ctx context.Context, actor access.Actor, id string) (*model.User, error) {
	args := m.Called(actor, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) UpdateUser(ctx context.Context, actor access.Actor, id string, in service.UpdateUserInput) (*model.User, error) {
	args := m.Called(actor, id, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAccounts) DeactivateUser(ctx context.Context, actor access.Actor, id string) error {
	return m.Called(actor, id).Error(0)
}

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) PostJob(ctx context.Context, actor access.Actor, in service.JobInput) (*service.JobView, error) {
	args := m.Called(actor, in)
	j, _ := args.Get(0).(*service.JobView)
	return j, args.Error(1)
}

func (m *mockJobs) ListJobs(ctx context.Context, actor access.Actor, q repository.JobQuery) (service.Page[service.JobView], error) {
	args := m.Called(actor, q)
	return args.Get(0).(service.Page[service.JobView]), args.Error(1)
}

func (m *mockJobs) GetJob(ctx context.Context, actor access.Actor, id string) (*service.JobView, error) {
	args := m.Called(actor, id)
	j, _ := args.Get(0).(*service.JobView)
	return j, args.Error(1)
}

func (m *mockJobs) UpdateJob(ctx context.Context, actor access.Actor, id string, in service.JobPatch) (*service.JobView, error) {
	args := m.Called(actor, id, in)
	j, _ := args.Get(0).(*service.JobView)
	return j, args.Error(1)
}

func (m *mockJobs) DeleteJob(ctx context.Context, actor access.Actor, id string) error {
	return m.Called(actor, id).Error(0)
}

func (m *mockJobs) ListAvailable(ctx context.Context, q repository.JobQuery) (service.Page[service.PublicJob], error) {
	args := m.Called(q)
	return args.Get(0).(service.Page[service.PublicJob]), args.Error(1)
}

func (m *mockJobs) GetAvailable(ctx context.Context, id string) (*service.PublicJob, error) {
	args := m.Called(id)
	j, _ := args.Get(0).(*service.PublicJob)
	return j, args.Error(1)
}

type mockApplications struct {
	mock.Mock
}

func (m *mockApplications) Apply(ctx context.Context, actor access.Actor, in service.ApplyInput) (*model.Application, error) {
	args := m.Called(actor, in)
	a, _ := args.Get(0).(*model.Application)
	return a, args.Error(1)
}

func (m *mockApplications) MyApplications(ctx context.Context, actor access.Actor, q repository.ListQuery) (service.Page[model.ApplicationSummary], error) {
	args := m.Called(actor, q)
	return args.Get(0).(service.Page[model.ApplicationSummary]), args.Error(1)
}

func (m *mockApplications) MyApplication(ctx context.Context, actor access.Actor, id string) (*model.ApplicationSummary, error) {
	args := m.Called(actor, id)
	a, _ := args.Get(0).(*model.ApplicationSummary)
	return a, args.Error(1)
}

func (m *mockApplications) JobApplications(ctx context.Context, actor access.Actor, q service.EmployerQuery) (service.Page[model.ApplicationDetail], error) {
	args := m.Called(actor, q)
	return args.Get(0).(service.Page[model.ApplicationDetail]), args.Error(1)
}

func (m *mockApplications) JobApplication(ctx context.Context, actor access.Actor, id string) (*model.ApplicationDetail, error) {
	args := m.Called(actor, id)
	d, _ := args.Get(0).(*model.ApplicationDetail)
	return d, args.Error(1)
}

func (m *mockApplications) Review(ctx context.Context, actor access.Actor, id, status string) (*model.ApplicationDetail, error) {
	args := m.Called(actor, id, status)
	d, _ := args.Get(0).(*model.ApplicationDetail)
	return d, args.Error(1)
}
