package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema.  It enforces the
// same unique keys so races and duplicates surface as *DuplicateError.
type memDB struct {
	mu           sync.Mutex
	users        map[string]*model.User
	profiles     map[string]*model.UserProfile
	tokens       map[string]*memToken
	industries   map[string]*model.Industry
	locations    map[string]*model.Location
	companies    map[string]*model.Company
	companyLocs  map[string][]string
	jobs         map[string]*model.Job
	applications map[string]*model.Application
}

type memToken struct {
	userID  string
	exp     time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[string]*model.User{},
		profiles:     map[string]*model.UserProfile{},
		tokens:       map[string]*memToken{},
		industries:   map[string]*model.Industry{},
		locations:    map[string]*model.Location{},
		companies:    map[string]*model.Company{},
		companyLocs:  map[string][]string{},
		jobs:         map[string]*model.Job{},
		applications: map[string]*model.Application{},
	}
}

func dup(key string) error { return &repository.DuplicateError{Key: key} }

func paginate[T any](items []T, q repository.ListQuery) ([]T, int) {
	q = q.Normalize()
	total := len(items)
	from := q.Offset()
	if from > total {
		from = total
	}
	to := from + q.PageSize
	if to > total {
		to = total
	}
	return items[from:to], total
}

func contains(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// ---- users ----

type memUsers struct{ db *memDB }

func (m memUsers) Create(ctx context.Context, u *model.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.users {
		switch {
		case o.Username == u.Username:
			return dup(repository.KeyUsername)
		case o.Email == u.Email:
			return dup(repository.KeyEmail)
		case u.Phone != nil && o.Phone != nil && *o.Phone == *u.Phone:
			return dup(repository.KeyPhone)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	cp := *u
	m.db.users[u.ID] = &cp
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memUsers) FindConflicts(ctx context.Context, username, email string, phone *string, excludeID string) (repository.UserConflicts, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var c repository.UserConflicts
	for _, u := range m.db.users {
		if u.ID == excludeID {
			continue
		}
		c.Username = c.Username || (username != "" && u.Username == username)
		c.Email = c.Email || (email != "" && u.Email == email)
		c.Phone = c.Phone || (phone != nil && u.Phone != nil && *u.Phone == *phone)
	}
	return c, nil
}

func (m memUsers) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (m memUsers) UpdateContact(ctx context.Context, u *model.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	o.FirstName, o.LastName, o.Phone = u.FirstName, u.LastName, u.Phone
	return nil
}

func (m memUsers) UpdateAccess(ctx context.Context, id string, role model.Role, active bool) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Role, o.IsActive = role, active
	return nil
}

func (m memUsers) List(ctx context.Context, q repository.UserQuery) ([]model.User, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.User
	for _, u := range m.db.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.IsActive != nil && u.IsActive != *q.IsActive {
			continue
		}
		if contains(q.Search, u.Username, u.Email, u.FirstName, u.LastName) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	items, total := paginate(out, q.ListQuery)
	return items, total, nil
}

// ---- profiles ----

type memProfiles struct{ db *memDB }

func (m memProfiles) GetOrCreate(ctx context.Context, userID string) (*model.UserProfile, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.profiles[userID]
	if !ok {
		p = &model.UserProfile{UserID: userID, CreatedAt: time.Now().UTC()}
		m.db.profiles[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (m memProfiles) Update(ctx context.Context, p *model.UserProfile) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.profiles[p.UserID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	m.db.profiles[p.UserID] = &cp
	return nil
}

// ---- refresh tokens ----

type memTokens struct{ db *memDB }

func (m memTokens) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.tokens[tokenHash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (m memTokens) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tokens[tokenHash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return "", repository.ErrNotFound
	}
	return t.userID, nil
}

func (m memTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if t, ok := m.db.tokens[tokenHash]; ok {
		t.revoked = true
	}
	return nil
}

func (m memTokens) RevokeAllForUser(ctx context.Context, userID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, t := range m.db.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (m memTokens) active(userID string) int {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	n := 0
	for _, t := range m.db.tokens {
		if t.userID == userID && !t.revoked {
			n++
		}
	}
	return n
}

// ---- industries ----

type memIndustries struct{ db *memDB }

func (m memIndustries) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, i := range m.db.industries {
		if i.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m memIndustries) Create(ctx context.Context, i *model.Industry) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.industries {
		if o.Slug == i.Slug {
			return dup(repository.KeyIndustrySlug)
		}
	}
	i.ID = uuid.NewString()
	cp := *i
	m.db.industries[i.ID] = &cp
	return nil
}

func (m memIndustries) GetByID(ctx context.Context, id string) (*model.Industry, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.industries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m memIndustries) List(ctx context.Context, q repository.ListQuery) ([]model.Industry, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Industry
	for _, i := range m.db.industries {
		if contains(q.Search, i.Name, i.Slug, i.Description) {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	items, total := paginate(out, q)
	return items, total, nil
}

func (m memIndustries) Update(ctx context.Context, i *model.Industry) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.industries[i.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *i
	m.db.industries[i.ID] = &cp
	return nil
}

func (m memIndustries) Delete(ctx context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.industries[id]; !ok {
		return repository.ErrNotFound
	}
	for _, c := range m.db.companies {
		if c.IndustryID == id {
			return repository.ErrInUse
		}
	}
	delete(m.db.industries, id)
	return nil
}

// ---- locations ----

type memLocations struct{ db *memDB }

func (m memLocations) Create(ctx context.Context, l *model.Location) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	l.ID = uuid.NewString()
	cp := *l
	m.db.locations[l.ID] = &cp
	return nil
}

func (m memLocations) GetByID(ctx context.Context, id string) (*model.Location, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	l, ok := m.db.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m memLocations) List(ctx context.Context, q repository.LocationQuery) ([]model.Location, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Location
	for _, l := range m.db.locations {
		if q.OwnerID != "" && l.CreatedBy != q.OwnerID {
			continue
		}
		if contains(q.Search, l.Country, l.City, l.Region) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].City < out[b].City })
	items, total := paginate(out, q.ListQuery)
	return items, total, nil
}

func (m memLocations) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	n := 0
	for _, l := range m.db.locations {
		if l.CreatedBy == ownerID {
			n++
		}
	}
	return n, nil
}

func (m memLocations) OwnedIDs(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []string
	for _, id := range ids {
		if l, ok := m.db.locations[id]; ok && l.CreatedBy == ownerID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m memLocations) Update(ctx context.Context, l *model.Location) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.locations[l.ID]
	if !ok || o.CreatedBy != l.CreatedBy {
		return repository.ErrNotFound
	}
	cp := *l
	m.db.locations[l.ID] = &cp
	return nil
}

func (m memLocations) Delete(ctx context.Context, id, ownerID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.locations[id]
	if !ok || o.CreatedBy != ownerID {
		return repository.ErrNotFound
	}
	delete(m.db.locations, id)
	return nil
}

// ---- companies ----

type memCompanies struct{ db *memDB }

func (m memCompanies) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, c := range m.db.companies {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m memCompanies) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, c := range m.db.companies {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m memCompanies) Create(ctx context.Context, c *model.Company, locationIDs []string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.companies {
		if o.Slug == c.Slug {
			return dup(repository.KeyCompanySlug)
		}
		if strings.EqualFold(o.Name, c.Name) {
			return dup(repository.KeyCompanyName)
		}
	}
	c.ID = uuid.NewString()
	cp := *c
	cp.Locations = nil
	m.db.companies[c.ID] = &cp
	m.db.companyLocs[c.ID] = append([]string(nil), locationIDs...)
	return nil
}

func (m memCompanies) GetByID(ctx context.Context, id string) (*model.Company, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.get(id)
}

func (m memCompanies) get(id string) (*model.Company, error) {
	c, ok := m.db.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	if i, ok := m.db.industries[c.IndustryID]; ok {
		cp.IndustryName = i.Name
	}
	cp.Locations = []model.Location{}
	for _, lid := range m.db.companyLocs[id] {
		if l, ok := m.db.locations[lid]; ok {
			cp.Locations = append(cp.Locations, *l)
		}
	}
	return &cp, nil
}

func (m memCompanies) List(ctx context.Context, q repository.CompanyQuery) ([]model.Company, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Company
	for id, c := range m.db.companies {
		if q.OwnerID != "" && c.CreatedBy != q.OwnerID {
			continue
		}
		if contains(q.Search, c.Name, c.Slug, c.Description, c.WebsiteURL) {
			full, _ := m.get(id)
			out = append(out, *full)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	items, total := paginate(out, q.ListQuery)
	return items, total, nil
}

func (m memCompanies) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	n := 0
	for _, c := range m.db.companies {
		if c.CreatedBy == ownerID {
			n++
		}
	}
	return n, nil
}

func (m memCompanies) Update(ctx context.Context, c *model.Company, locationIDs []string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.companies[c.ID]
	if !ok || o.CreatedBy != c.CreatedBy {
		return repository.ErrNotFound
	}
	cp := *c
	cp.Locations = nil
	m.db.companies[c.ID] = &cp
	if locationIDs != nil {
		m.db.companyLocs[c.ID] = append([]string(nil), locationIDs...)
	}
	return nil
}

func (m memCompanies) SetLogo(ctx context.Context, id, ownerID, logo string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.companies[id]
	if !ok || o.CreatedBy != ownerID {
		return repository.ErrNotFound
	}
	o.Logo = logo
	return nil
}

func (m memCompanies) Delete(ctx context.Context, id, ownerID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.companies[id]
	if !ok || o.CreatedBy != ownerID {
		return repository.ErrNotFound
	}
	delete(m.db.companies, id)
	delete(m.db.companyLocs, id)
	return nil
}

// ---- jobs ----

type memJobs struct{ db *memDB }

func (m memJobs) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, j := range m.db.jobs {
		if j.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m memJobs) Create(ctx context.Context, j *model.Job) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.jobs {
		if o.Slug == j.Slug {
			return dup(repository.KeyJobSlug)
		}
	}
	j.ID = uuid.NewString()
	j.PostedOn = time.Now().UTC()
	cp := *j
	cp.Locations = append([]model.Location(nil), j.Locations...)
	m.db.jobs[j.ID] = &cp
	return nil
}

func (m memJobs) GetByID(ctx context.Context, id string) (*model.Job, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	j, ok := m.db.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m memJobs) List(ctx context.Context, q repository.JobQuery) ([]model.Job, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Job
	for _, j := range m.db.jobs {
		if q.PostedBy != "" && j.PostedBy != q.PostedBy {
			continue
		}
		if q.ActiveOnly && !j.IsActive {
			continue
		}
		if contains(q.Search, j.Title, j.Description, j.Requirements, j.Responsibilities, j.SkillsRequired, j.IndustryName) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Title < out[b].Title })
	items, total := paginate(out, q.ListQuery)
	return items, total, nil
}

func (m memJobs) Update(ctx context.Context, j *model.Job) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	o, ok := m.db.jobs[j.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *j
	cp.Locations, cp.IndustryID, cp.PostedBy, cp.Slug = o.Locations, o.IndustryID, o.PostedBy, o.Slug
	m.db.jobs[j.ID] = &cp
	return nil
}

func (m memJobs) Delete(ctx context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.db.jobs, id)
	for aid, a := range m.db.applications {
		if a.JobID == id {
			delete(m.db.applications, aid)
		}
	}
	return nil
}

// ---- applications ----

type memApplications struct {
	db *memDB
	// skipExists makes Exists lie so the unique key path is exercised.
	skipExists bool
}

func (m *memApplications) Exists(ctx context.Context, jobID, applicantID string) (bool, error) {
	if m.skipExists {
		return false, nil
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, a := range m.db.applications {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memApplications) Create(ctx context.Context, a *model.Application) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.applications {
		if o.JobID == a.JobID && o.ApplicantID == a.ApplicantID {
			return dup(repository.KeyApplicationPair)
		}
	}
	a.ID = uuid.NewString()
	a.AppliedOn = time.Now().UTC()
	cp := *a
	m.db.applications[a.ID] = &cp
	return nil
}

func (m *memApplications) summary(a *model.Application) model.ApplicationSummary {
	j := m.db.jobs[a.JobID]
	return model.ApplicationSummary{
		ID: a.ID, JobTitle: j.Title, CompanyName: j.CompanyName,
		JobLocation: model.JoinLocations(j.Locations), Status: a.Status,
	}
}

func (m *memApplications) detail(a *model.Application) model.ApplicationDetail {
	j := m.db.jobs[a.JobID]
	u := m.db.users[a.ApplicantID]
	d := model.ApplicationDetail{
		ID: a.ID, JobID: a.JobID, JobTitle: j.Title, JobPostedBy: j.PostedBy,
		ApplicantID: a.ApplicantID, JobLocation: model.JoinLocations(j.Locations),
		Status: a.Status, AppliedOn: a.AppliedOn, ExperienceYears: a.ExperienceYears,
		ExpectedSalary: a.ExpectedSalary, CoverLetter: a.CoverLetter, Resume: a.Resume,
		AdditionalDocuments: a.AdditionalDocuments, ReviewedBy: a.ReviewedBy, ReviewedAt: a.ReviewedAt,
	}
	if u != nil {
		d.ApplicantName, d.ApplicantEmail = u.FullName(), u.Email
	}
	return d
}

func (m *memApplications) ListForApplicant(ctx context.Context, applicantID string, q repository.ListQuery) ([]model.ApplicationSummary, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.ApplicationSummary
	for _, a := range m.db.applications {
		if a.ApplicantID == applicantID {
			out = append(out, m.summary(a))
		}
	}
	items, total := paginate(out, q)
	return items, total, nil
}

func (m *memApplications) GetSummaryForApplicant(ctx context.Context, id, applicantID string) (*model.ApplicationSummary, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a, ok := m.db.applications[id]
	if !ok || a.ApplicantID != applicantID {
		return nil, repository.ErrNotFound
	}
	s := m.summary(a)
	return &s, nil
}

func (m *memApplications) ListForEmployer(ctx context.Context, q repository.ApplicationQuery) ([]model.ApplicationDetail, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.ApplicationDetail
	for _, a := range m.db.applications {
		d := m.detail(a)
		if q.EmployerID != "" && d.JobPostedBy != q.EmployerID {
			continue
		}
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if q.JobID != "" && d.JobID != q.JobID {
			continue
		}
		out = append(out, d)
	}
	items, total := paginate(out, q.ListQuery)
	return items, total, nil
}

func (m *memApplications) GetDetail(ctx context.Context, id string) (*model.ApplicationDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a, ok := m.db.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d := m.detail(a)
	return &d, nil
}

func (m *memApplications) Review(ctx context.Context, id, reviewerID string, status model.Status, at time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	a, ok := m.db.applications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if m.db.jobs[a.JobID].PostedBy != reviewerID {
		return repository.ErrForbidden
	}
	reviewer := reviewerID
	a.Status, a.ReviewedBy, a.ReviewedAt = status, &reviewer, &at
	return nil
}

// ---- files ----

type mockFiles struct {
	mock.Mock
}

func (m *mockFiles) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	args := m.Called(ctx, dir, filename, r)
	return args.String(0), args.Error(1)
}

func (m *mockFiles) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// memFiles records saved keys without touching disk.
type memFiles struct {
	mu    sync.Mutex
	saved map[string]string
}

func newMemFiles() *memFiles { return &memFiles{saved: map[string]string{}} }

func (f *memFiles) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dir + "/" + filename
	for i := 1; ; i++ {
		if _, taken := f.saved[key]; !taken {
			break
		}
		key = fmt.Sprintf("%s/%d_%s", dir, i, filename)
	}
	f.saved[key] = string(b)
	return key, nil
}

func (f *memFiles) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, key)
	return nil
}

func (f *memFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}
