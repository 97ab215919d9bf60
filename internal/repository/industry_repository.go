package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/job-board/internal/model"
)

// IndustryRepo provides CRUD over the industries table.
type IndustryRepo struct{ db *sql.DB }

func NewIndustryRepo(db *sql.DB) *IndustryRepo { return &IndustryRepo{db: db} }

const industryColumns = "id, name, slug, description, is_active, created_at, updated_at"

func scanIndustry(row rowScanner) (*model.Industry, error) {
	var i model.Industry
	err := row.Scan(&i.ID, &i.Name, &i.Slug, &i.Description, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

func (r *IndustryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM industries WHERE slug = ?", slug).Scan(&n)
	return n > 0, err
}

func (r *IndustryRepo) Create(ctx context.Context, i *model.Industry) error {
	if i.ID == "" {
		i.ID = newID()
	}
	now := time.Now().UTC().Truncate(time.Second)
	i.CreatedAt, i.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO industries (id, name, slug, description, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		i.ID, i.Name, i.Slug, i.Description, i.IsActive, i.CreatedAt, i.UpdatedAt)
	return translate(err)
}

func (r *IndustryRepo) GetByID(ctx context.Context, id string) (*model.Industry, error) {
	i, err := scanIndustry(r.db.QueryRowContext(ctx,
		"SELECT "+industryColumns+" FROM industries WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (r *IndustryRepo) List(ctx context.Context, q ListQuery) ([]model.Industry, int, error) {
	q = q.Normalize()
	var w where
	w.keyword(q.Search, "name", "slug", "description")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM industries WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+industryColumns+" FROM industries WHERE "+w.sql()+" ORDER BY name, id LIMIT ? OFFSET ?",
		append(w.args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Industry{}
	for rows.Next() {
		i, err := scanIndustry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *i)
	}
	return out, total, rows.Err()
}

// Update writes name, description and is_active.  The slug is fixed at creation.
func (r *IndustryRepo) Update(ctx context.Context, i *model.Industry) error {
	i.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"UPDATE industries SET name = ?, description = ?, is_active = ?, updated_at = ? WHERE id = ?",
		i.Name, i.Description, i.IsActive, i.UpdatedAt, i.ID)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}

// Delete returns ErrInUse while companies or jobs still reference the industry.
func (r *IndustryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM industries WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}
