package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/job-board/internal/model"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, first_name, last_name, email, phone_number,
	password_hash, role, is_active, date_joined, last_login`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		phone     sql.NullString
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &phone,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.DateJoined, &lastLogin); err != nil {
		return nil, err
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// UserConflicts flags which unique identity fields are already taken.
type UserConflicts struct {
	Username bool
	Email    bool
	Phone    bool
}

func (c UserConflicts) Any() bool { return c.Username || c.Email || c.Phone }

// Create inserts the user, assigning ID and DateJoined when unset.  A unique
// key race surfaces as *DuplicateError naming the key.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC().Truncate(time.Second)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, first_name, last_name, email, phone_number, password_hash, role, is_active, date_joined)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.Role, u.IsActive, u.DateJoined)
	return translate(err)
}

func (r *UserRepo) getBy(ctx context.Context, col, val string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+col+" = ? LIMIT 1", val))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUsername expects an already normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

// FindConflicts checks username, email and phone against other users.
// excludeID skips the caller's own row on updates.
func (r *UserRepo) FindConflicts(ctx context.Context, username, email string, phone *string, excludeID string) (UserConflicts, error) {
	var c UserConflicts
	rows, err := r.db.QueryContext(ctx,
		`SELECT username, email, phone_number FROM users
		 WHERE (username = ? OR email = ? OR (phone_number IS NOT NULL AND phone_number = ?)) AND id <> ?`,
		username, email, phone, excludeID)
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var u, e string
		var p sql.NullString
		if err := rows.Scan(&u, &e, &p); err != nil {
			return c, err
		}
		c.Username = c.Username || (username != "" && u == username)
		c.Email = c.Email || (email != "" && e == email)
		c.Phone = c.Phone || (phone != nil && p.Valid && p.String == *phone)
	}
	return c, rows.Err()
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", at, id)
	return err
}

// UpdateContact writes the self-editable fields.
func (r *UserRepo) UpdateContact(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET first_name = ?, last_name = ?, phone_number = ? WHERE id = ?",
		u.FirstName, u.LastName, u.Phone, u.ID)
	if err != nil {
		return translate(err)
	}
	return affected(res)
}

// UpdateAccess writes the admin-controlled fields.
func (r *UserRepo) UpdateAccess(ctx context.Context, id string, role model.Role, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET role = ?, is_active = ? WHERE id = ?", role, active, id)
	if err != nil {
		return err
	}
	return affected(res)
}

// UserQuery filters the admin user listing.
type UserQuery struct {
	ListQuery
	Role     model.Role
	IsActive *bool
}

func (r *UserRepo) List(ctx context.Context, q UserQuery) ([]model.User, int, error) {
	q.ListQuery = q.ListQuery.Normalize()
	var w where
	w.keyword(q.Search, "username", "email", "first_name", "last_name")
	if q.Role != "" {
		w.add("role = ?", q.Role)
	}
	if q.IsActive != nil {
		w.add("is_active = ?", *q.IsActive)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+w.sql()+" ORDER BY date_joined DESC, id LIMIT ? OFFSET ?",
		append(w.args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

// affected turns a zero-row UPDATE/DELETE into ErrNotFound.
func affected(res sql.Result) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
