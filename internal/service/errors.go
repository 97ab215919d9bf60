// Package service implements the job board's business rules on top of the
// repository layer.  Expected failures are returned as *Error; anything else
// is an internal error wrapped with context.
package service

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindRateLimited
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is an expected, client-facing failure.  Fields maps a request field
// to its messages for validation style errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Kind.String() + ": " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return e.Kind.String() + ": " + e.Message + " (" + strings.Join(parts, ", ") + ")"
}

// KindOf returns the kind of a service error, or 0 for internal errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// FieldErrors collects per-field messages before they are turned into a
// single validation error.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, msg string) { f[field] = append(f[field], msg) }

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: f}
}

func fieldError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: map[string][]string{field: {msg}}}
}

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func authError(msg string) *Error    { return &Error{Kind: KindAuth, Message: msg} }
func unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func notFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

func conflictField(field, msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Fields: map[string][]string{field: {msg}}}
}

// ErrInsufficientRole is the role-level denial shared by every service.
var ErrInsufficientRole = forbidden("insufficient role")
