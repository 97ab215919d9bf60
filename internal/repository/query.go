package repository

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery carries keyword search and pagination shared by every list.
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

// Normalize clamps pagination into [1, MaxPageSize].
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.PageSize }

// where accumulates AND-ed conditions and their args.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// keyword adds one OR group matching term against every column.
func (w *where) keyword(term string, cols ...string) { w.keywordOr(term, "", cols...) }

// keywordOr is keyword with one extra argument-free alternative, such as a
// flag test derived from the term.
func (w *where) keywordOr(term, extra string, cols ...string) {
	if term == "" || len(cols) == 0 {
		return
	}
	like := "%" + strings.ToLower(term) + "%"
	parts := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		parts = append(parts, "LOWER("+c+") LIKE ?")
		w.args = append(w.args, like)
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

// flagMatch turns a search term naming a boolean into a test on col.
// "remote", "true", "yes" and "1" match set flags; "onsite", "false", "no"
// and "0" match unset ones.  Any other term yields "".
func flagMatch(col, term string) string {
	switch strings.ToLower(strings.TrimSpace(term)) {
	case "remote", "true", "yes", "1":
		return col + " = 1"
	case "onsite", "on-site", "false", "no", "0":
		return col + " = 0"
	}
	return ""
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return "1=1"
	}
	return strings.Join(w.conds, " AND ")
}

func newID() string { return uuid.NewString() }

// placeholders returns "?,?,?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
