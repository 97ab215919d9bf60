package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/job-board/internal/model"
)

// CompanyRepo stores companies and their links to locations.  A company's
// locations are written in the same transaction as the company row.
type CompanyRepo struct{ db *sql.DB }

func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{db: db} }

const companyColumns = `c.id, c.name, c.slug, c.description, c.logo, c.website_url,
	c.industry_id, i.name, c.is_verified, c.created_by, c.created_at, c.updated_at`

const companyFrom = " FROM companies c JOIN industries i ON i.id = c.industry_id"

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanCompany(row rowScanner) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Logo, &c.WebsiteURL,
		&c.IndustryID, &c.IndustryName, &c.IsVerified, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

// NameExists reports whether another company (not excludeID) uses name.
func (r *CompanyRepo) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM companies WHERE LOWER(name) = LOWER(?) AND id <> ?", name, excludeID).Scan(&n)
	return n > 0, err
}

func (r *CompanyRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies WHERE slug = ?", slug).Scan(&n)
	return n > 0, err
}

// Create inserts the company and links locationIDs in one transaction.
func (r *CompanyRepo) Create(ctx context.Context, c *model.Company, locationIDs []string) error {
	if c.ID == "" {
		c.ID = newID()
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt, c.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO companies (id, name, slug, description, logo, website_url, industry_id, is_verified, created_by, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Name, c.Slug, c.Description, c.Logo, c.WebsiteURL, c.IndustryID, c.IsVerified, c.CreatedBy, c.CreatedAt, c.UpdatedAt); err != nil {
		return translate(err)
	}
	if err := linkLocations(ctx, tx, "company_locations", "company_id", c.ID, locationIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// linkLocations bulk-inserts (owner, location) pairs into a join table.
func linkLocations(ctx context.Context, tx *sql.Tx, table, fk, ownerID string, locationIDs []string) error {
	if len(locationIDs) == 0 {
		return nil
	}
	query := "INSERT INTO " + table + " (" + fk + ", location_id) VALUES "
	args := make([]any, 0, len(locationIDs)*2)
	for i, id := range locationIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, ownerID, id)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return translate(err)
}

// locationsFor loads linked locations for every owner id, keyed by owner.
func locationsFor(ctx context.Context, q queryer, table, fk string, ownerIDs []string) (map[string][]model.Location, error) {
	out := make(map[string][]model.Location, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx,
		"SELECT t."+fk+", "+locationColumns+" FROM "+table+" t JOIN locations l ON l.id = t.location_id"+
			" WHERE t."+fk+" IN ("+placeholders(len(ownerIDs))+") ORDER BY l.country, l.city, l.id",
		stringArgs(ownerIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			owner string
			l     model.Location
		)
		if err := rows.Scan(&owner, &l.ID, &l.Country, &l.City, &l.Region, &l.IsRemote, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], l)
	}
	return out, rows.Err()
}

func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx, "SELECT "+companyColumns+companyFrom+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	locs, err := locationsFor(ctx, r.db, "company_locations", "company_id", []string{c.ID})
	if err != nil {
		return nil, err
	}
	c.Locations = nonNil(locs[c.ID])
	return c, nil
}

// CompanyQuery lists companies.  An empty OwnerID lists all of them.
type CompanyQuery struct {
	ListQuery
	OwnerID string
}

func (r *CompanyRepo) List(ctx context.Context, q CompanyQuery) ([]model.Company, int, error) {
	q.ListQuery = q.ListQuery.Normalize()
	var w where
	if q.OwnerID != "" {
		w.add("c.created_by = ?", q.OwnerID)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		w.add(`(LOWER(c.name) LIKE ? OR LOWER(c.slug) LIKE ? OR LOWER(c.description) LIKE ?
			OR LOWER(c.website_url) LIKE ? OR LOWER(i.name) LIKE ?
			OR EXISTS (SELECT 1 FROM company_locations cl JOIN locations l ON l.id = cl.location_id
				WHERE cl.company_id = c.id AND (LOWER(l.country) LIKE ? OR LOWER(l.city) LIKE ? OR LOWER(l.region) LIKE ?)))`,
			like, like, like, like, like, like, like, like)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+companyFrom+" WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+companyColumns+companyFrom+" WHERE "+w.sql()+" ORDER BY c.name, c.id LIMIT ? OFFSET ?",
		append(w.args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out := []model.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	locs, err := locationsFor(ctx, r.db, "company_locations", "company_id", ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Locations = nonNil(locs[out[i].ID])
	}
	return out, total, nil
}

func (r *CompanyRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies WHERE created_by = ?", ownerID).Scan(&n)
	return n, err
}

// Update rewrites the editable columns of an owned company.  A nil
// locationIDs leaves the linked locations untouched; an empty slice clears them.
func (r *CompanyRepo) Update(ctx context.Context, c *model.Company, locationIDs []string) error {
	c.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE companies SET name = ?, description = ?, website_url = ?, industry_id = ?, updated_at = ?
		 WHERE id = ? AND created_by = ?`,
		c.Name, c.Description, c.WebsiteURL, c.IndustryID, c.UpdatedAt, c.ID, c.CreatedBy)
	if err != nil {
		return translate(err)
	}
	if err := affected(res); err != nil {
		return err
	}
	if locationIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM company_locations WHERE company_id = ?", c.ID); err != nil {
			return err
		}
		if err := linkLocations(ctx, tx, "company_locations", "company_id", c.ID, locationIDs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CompanyRepo) SetLogo(ctx context.Context, id, ownerID, logo string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE companies SET logo = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND created_by = ?",
		logo, id, ownerID)
	if err != nil {
		return err
	}
	return affected(res)
}

// Delete removes an owned company; its jobs and their applications cascade.
func (r *CompanyRepo) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM companies WHERE id = ? AND created_by = ?", id, ownerID)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}

func nonNil(locs []model.Location) []model.Location {
	if locs == nil {
		return []model.Location{}
	}
	return locs
}
