package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/job-board/internal/model"
)

type LocationRepo struct{ db *sql.DB }

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

const locationColumns = "l.id, l.country, l.city, l.region, l.is_remote, l.created_by, l.created_at"

func scanLocation(row rowScanner) (*model.Location, error) {
	var l model.Location
	err := row.Scan(&l.ID, &l.Country, &l.City, &l.Region, &l.IsRemote, &l.CreatedBy, &l.CreatedAt)
	return &l, err
}

func (r *LocationRepo) Create(ctx context.Context, l *model.Location) error {
	if l.ID == "" {
		l.ID = newID()
	}
	l.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO locations (id, country, city, region, is_remote, created_by, created_at) VALUES (?,?,?,?,?,?,?)",
		l.ID, l.Country, l.City, l.Region, l.IsRemote, l.CreatedBy, l.CreatedAt)
	return translate(err)
}

func (r *LocationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	l, err := scanLocation(r.db.QueryRowContext(ctx,
		"SELECT "+locationColumns+" FROM locations l WHERE l.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// LocationQuery lists locations.  An empty OwnerID lists every owner's rows.
type LocationQuery struct {
	ListQuery
	OwnerID string
}

func (r *LocationRepo) List(ctx context.Context, q LocationQuery) ([]model.Location, int, error) {
	q.ListQuery = q.ListQuery.Normalize()
	var w where
	if q.OwnerID != "" {
		w.add("l.created_by = ?", q.OwnerID)
	}
	w.keywordOr(q.Search, flagMatch("l.is_remote", q.Search), "l.country", "l.city", "l.region")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations l WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+locationColumns+" FROM locations l WHERE "+w.sql()+" ORDER BY l.country, l.city, l.id LIMIT ? OFFSET ?",
		append(w.args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

func (r *LocationRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations WHERE created_by = ?", ownerID).Scan(&n)
	return n, err
}

// OwnedIDs returns the subset of ids that exist and belong to ownerID.
func (r *LocationRepo) OwnedIDs(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	args := append([]any{ownerID}, stringArgs(ids)...)
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM locations WHERE created_by = ? AND id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Update is guarded by created_by; a row owned by someone else reports ErrNotFound.
func (r *LocationRepo) Update(ctx context.Context, l *model.Location) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE locations SET country = ?, city = ?, region = ?, is_remote = ? WHERE id = ? AND created_by = ?",
		l.Country, l.City, l.Region, l.IsRemote, l.ID, l.CreatedBy)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}

func (r *LocationRepo) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE id = ? AND created_by = ?", id, ownerID)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}
