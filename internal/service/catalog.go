package service

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/logger"
	"github.com/iliyamo/job-board/internal/model"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/utils"
)

const (
	msgIndustryInUse     = "industry is in use"
	msgLocationFirst     = "create a location first"
	msgCompanyNameTaken  = "A company with this name already exists."
	msgInvalidIndustry   = "Invalid industry - object does not exist."
	msgLocationsNotOwned = "Every location must exist and belong to you."
)

// CatalogService manages industries, locations and companies.
type CatalogService struct {
	industries industryStore
	locations  locationStore
	companies  companyStore
	files      fileStore
}

func NewCatalogService(industries industryStore, locations locationStore, companies companyStore, files fileStore) *CatalogService {
	return &CatalogService{industries: industries, locations: locations, companies: companies, files: files}
}

// ownerScope returns "" when the actor may read every owner's rows, or the
// actor's own id otherwise.
func ownerScope(actor access.Actor) string {
	if access.Can(actor.Role, access.ReadCatalog) {
		return ""
	}
	return actor.ID
}

// ---- Industries ----

type IndustryInput struct {
	Name        string
	Description string
}

func (s *CatalogService) CreateIndustry(ctx context.Context, actor access.Actor, in IndustryInput) (*model.Industry, error) {
	if err := authorize(actor, access.ManageIndustries); err != nil {
		return nil, err
	}
	i := &model.Industry{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
	}
	err := insertWithSlug(ctx, utils.Slugify(i.Name), "industry", repository.KeyIndustrySlug,
		s.industries.SlugExists,
		func(ctx context.Context, slug string) error {
			i.Slug = slug
			return s.industries.Create(ctx, i)
		})
	if err != nil {
		return nil, errors.Wrap(err, "create industry")
	}
	return i, nil
}

func (s *CatalogService) ListIndustries(ctx context.Context, actor access.Actor, q repository.ListQuery) (Page[model.Industry], error) {
	if err := authorize(actor, access.ReadIndustries); err != nil {
		return Page[model.Industry]{}, err
	}
	items, total, err := s.industries.List(ctx, q)
	if err != nil {
		return Page[model.Industry]{}, errors.Wrap(err, "list industries")
	}
	return newPage(items, total, q), nil
}

func (s *CatalogService) GetIndustry(ctx context.Context, actor access.Actor, id string) (*model.Industry, error) {
	if err := authorize(actor, access.ReadIndustries); err != nil {
		return nil, err
	}
	return s.loadIndustry(ctx, id)
}

func (s *CatalogService) loadIndustry(ctx context.Context, id string) (*model.Industry, error) {
	i, err := s.industries.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("industry not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load industry")
	}
	return i, nil
}

type IndustryPatch struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// UpdateIndustry keeps the slug allocated at creation.
func (s *CatalogService) UpdateIndustry(ctx context.Context, actor access.Actor, id string, in IndustryPatch) (*model.Industry, error) {
	if err := authorize(actor, access.ManageIndustries); err != nil {
		return nil, err
	}
	i, err := s.loadIndustry(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		i.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		i.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		i.IsActive = *in.IsActive
	}
	if err := s.industries.Update(ctx, i); err != nil {
		return nil, errors.Wrap(err, "update industry")
	}
	return i, nil
}

func (s *CatalogService) DeleteIndustry(ctx context.Context, actor access.Actor, id string) error {
	if err := authorize(actor, access.ManageIndustries); err != nil {
		return err
	}
	err := s.industries.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound("industry not found")
	case errors.Is(err, repository.ErrInUse):
		return conflict(msgIndustryInUse)
	}
	return errors.Wrap(err, "delete industry")
}

// ---- Locations ----

type LocationInput struct {
	Country  string
	City     string
	Region   string
	IsRemote bool
}

func (s *CatalogService) CreateLocation(ctx context.Context, actor access.Actor, in LocationInput) (*model.Location, error) {
	if err := authorize(actor, access.ManageLocations); err != nil {
		return nil, err
	}
	l := &model.Location{
		Country:   strings.TrimSpace(in.Country),
		City:      strings.TrimSpace(in.City),
		Region:    strings.TrimSpace(in.Region),
		IsRemote:  in.IsRemote,
		CreatedBy: actor.ID,
	}
	if err := s.locations.Create(ctx, l); err != nil {
		return nil, errors.Wrap(err, "create location")
	}
	return l, nil
}

func (s *CatalogService) ListLocations(ctx context.Context, actor access.Actor, q repository.ListQuery) (Page[model.Location], error) {
	if err := authorize(actor, access.ManageLocations, access.ReadCatalog); err != nil {
		return Page[model.Location]{}, err
	}
	items, total, err := s.locations.List(ctx, repository.LocationQuery{ListQuery: q, OwnerID: ownerScope(actor)})
	if err != nil {
		return Page[model.Location]{}, errors.Wrap(err, "list locations")
	}
	return newPage(items, total, q), nil
}

// GetLocation hides other employers' locations behind not found.
func (s *CatalogService) GetLocation(ctx context.Context, actor access.Actor, id string) (*model.Location, error) {
	if err := authorize(actor, access.ManageLocations, access.ReadCatalog); err != nil {
		return nil, err
	}
	l, err := s.loadLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerScope(actor) != "" && !actor.Owns(l.CreatedBy) {
		return nil, notFound("location not found")
	}
	return l, nil
}

func (s *CatalogService) loadLocation(ctx context.Context, id string) (*model.Location, error) {
	l, err := s.locations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("location not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load location")
	}
	return l, nil
}

// ownedLocation loads a location for mutation: missing is not found, owned
// by someone else is forbidden.
func (s *CatalogService) ownedLocation(ctx context.Context, actor access.Actor, id string) (*model.Location, error) {
	if err := authorize(actor, access.ManageLocations); err != nil {
		return nil, err
	}
	l, err := s.loadLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(l.CreatedBy) {
		return nil, forbidden("forbidden")
	}
	return l, nil
}

type LocationPatch struct {
	Country  *string
	City     *string
	Region   *string
	IsRemote *bool
}

func (s *CatalogService) UpdateLocation(ctx context.Context, actor access.Actor, id string, in LocationPatch) (*model.Location, error) {
	l, err := s.ownedLocation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Country != nil {
		l.Country = strings.TrimSpace(*in.Country)
	}
	if in.City != nil {
		l.City = strings.TrimSpace(*in.City)
	}
	if in.Region != nil {
		l.Region = strings.TrimSpace(*in.Region)
	}
	if in.IsRemote != nil {
		l.IsRemote = *in.IsRemote
	}
	if err := s.locations.Update(ctx, l); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("location not found")
		}
		return nil, errors.Wrap(err, "update location")
	}
	return l, nil
}

func (s *CatalogService) DeleteLocation(ctx context.Context, actor access.Actor, id string) error {
	l, err := s.ownedLocation(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.locations.Delete(ctx, l.ID, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("location not found")
	}
	return errors.Wrap(err, "delete location")
}

// ---- Companies ----

type CompanyInput struct {
	Name        string
	Description string
	WebsiteURL  string
	IndustryID  string
	LocationIDs []string
}

// checkLocations verifies every id exists and is owned by the actor.
func (s *CatalogService) checkLocations(ctx context.Context, actor access.Actor, ids []string) ([]string, error) {
	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return ids, nil
	}
	owned, err := s.locations.OwnedIDs(ctx, actor.ID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "check locations")
	}
	if len(owned) != len(ids) {
		return nil, fieldError("location_ids", msgLocationsNotOwned)
	}
	return ids, nil
}

func (s *CatalogService) checkIndustry(ctx context.Context, id string) error {
	_, err := s.industries.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fieldError("industry", msgInvalidIndustry)
	}
	return errors.Wrap(err, "load industry")
}

func (s *CatalogService) checkCompanyName(ctx context.Context, name, excludeID string) error {
	taken, err := s.companies.NameExists(ctx, name, excludeID)
	if err != nil {
		return errors.Wrap(err, "check company name")
	}
	if taken {
		return conflictField("name", msgCompanyNameTaken)
	}
	return nil
}

// CreateCompany requires the employer to own at least one location.
func (s *CatalogService) CreateCompany(ctx context.Context, actor access.Actor, in CompanyInput) (*model.Company, error) {
	if err := authorize(actor, access.ManageCompanies); err != nil {
		return nil, err
	}
	n, err := s.locations.CountByOwner(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count locations")
	}
	if n == 0 {
		return nil, forbidden(msgLocationFirst)
	}

	c := &model.Company{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		WebsiteURL:  strings.TrimSpace(in.WebsiteURL),
		IndustryID:  in.IndustryID,
		CreatedBy:   actor.ID,
	}
	if err := s.checkIndustry(ctx, c.IndustryID); err != nil {
		return nil, err
	}
	ids, err := s.checkLocations(ctx, actor, in.LocationIDs)
	if err != nil {
		return nil, err
	}
	if err := s.checkCompanyName(ctx, c.Name, ""); err != nil {
		return nil, err
	}

	err = insertWithSlug(ctx, utils.Slugify(c.Name), "company", repository.KeyCompanySlug,
		s.companies.SlugExists,
		func(ctx context.Context, slug string) error {
			c.Slug = slug
			return s.companies.Create(ctx, c, ids)
		})
	if repository.IsDuplicateKey(err, repository.KeyCompanyName) {
		return nil, conflictField("name", msgCompanyNameTaken)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create company")
	}
	return s.loadCompany(ctx, c.ID)
}

func (s *CatalogService) loadCompany(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("company not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load company")
	}
	return c, nil
}

func (s *CatalogService) ListCompanies(ctx context.Context, actor access.Actor, q repository.ListQuery) (Page[model.Company], error) {
	if err := authorize(actor, access.ManageCompanies, access.ReadCatalog); err != nil {
		return Page[model.Company]{}, err
	}
	items, total, err := s.companies.List(ctx, repository.CompanyQuery{ListQuery: q, OwnerID: ownerScope(actor)})
	if err != nil {
		return Page[model.Company]{}, errors.Wrap(err, "list companies")
	}
	return newPage(items, total, q), nil
}

func (s *CatalogService) GetCompany(ctx context.Context, actor access.Actor, id string) (*model.Company, error) {
	if err := authorize(actor, access.ManageCompanies, access.ReadCatalog); err != nil {
		return nil, err
	}
	c, err := s.loadCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerScope(actor) != "" && !actor.Owns(c.CreatedBy) {
		return nil, notFound("company not found")
	}
	return c, nil
}

func (s *CatalogService) ownedCompany(ctx context.Context, actor access.Actor, id string) (*model.Company, error) {
	if err := authorize(actor, access.ManageCompanies); err != nil {
		return nil, err
	}
	c, err := s.loadCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(c.CreatedBy) {
		return nil, forbidden("forbidden")
	}
	return c, nil
}

// CompanyPatch leaves nil fields unchanged.  A non-nil LocationIDs replaces
// the linked set.
type CompanyPatch struct {
	Name        *string
	Description *string
	WebsiteURL  *string
	IndustryID  *string
	LocationIDs *[]string
}

// UpdateCompany keeps the slug allocated at creation.
func (s *CatalogService) UpdateCompany(ctx context.Context, actor access.Actor, id string, in CompanyPatch) (*model.Company, error) {
	c, err := s.ownedCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
		if err := s.checkCompanyName(ctx, c.Name, c.ID); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.WebsiteURL != nil {
		c.WebsiteURL = strings.TrimSpace(*in.WebsiteURL)
	}
	if in.IndustryID != nil && *in.IndustryID != c.IndustryID {
		if err := s.checkIndustry(ctx, *in.IndustryID); err != nil {
			return nil, err
		}
		c.IndustryID = *in.IndustryID
	}
	var ids []string
	if in.LocationIDs != nil {
		if ids, err = s.checkLocations(ctx, actor, *in.LocationIDs); err != nil {
			return nil, err
		}
	}

	err = s.companies.Update(ctx, c, ids)
	switch {
	case repository.IsDuplicateKey(err, repository.KeyCompanyName):
		return nil, conflictField("name", msgCompanyNameTaken)
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("company not found")
	case err != nil:
		return nil, errors.Wrap(err, "update company")
	}
	return s.loadCompany(ctx, c.ID)
}

// DeleteCompany also removes the company's jobs and their applications.
func (s *CatalogService) DeleteCompany(ctx context.Context, actor access.Actor, id string) error {
	c, err := s.ownedCompany(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.companies.Delete(ctx, c.ID, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("company not found")
	}
	if err != nil {
		return errors.Wrap(err, "delete company")
	}
	if c.Logo != "" {
		if err := s.files.Delete(ctx, c.Logo); err != nil {
			log.WithError(err).WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to remove %s", c.Logo)
		}
	}
	return nil
}

// UploadCompanyLogo stores the logo under company_logos/ and replaces the old one.
func (s *CatalogService) UploadCompanyLogo(ctx context.Context, actor access.Actor, id, filename string, r io.Reader) (*model.Company, error) {
	c, err := s.ownedCompany(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, err := s.files.Save(ctx, "company_logos", filename, r)
	if err != nil {
		return nil, errors.Wrap(err, "store logo")
	}
	if err := s.companies.SetLogo(ctx, c.ID, actor.ID, key); err != nil {
		_ = s.files.Delete(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("company not found")
		}
		return nil, errors.Wrap(err, "set logo")
	}
	if c.Logo != "" && c.Logo != key {
		if err := s.files.Delete(ctx, c.Logo); err != nil {
			log.WithError(err).WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to remove %s", c.Logo)
		}
	}
	c.Logo = key
	return c, nil
}
