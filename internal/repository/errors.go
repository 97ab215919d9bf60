// Package repository holds the MySQL data access layer.  Errors returned to
// callers are either the sentinels below, a *DuplicateError, or a raw driver
// error for unexpected failures.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist, or when a
// guarded UPDATE/DELETE matches no row.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when a row exists but belongs to someone else and
// the check happens inside a transaction.
var ErrForbidden = errors.New("forbidden")

// ErrInUse is returned when a delete is blocked by a RESTRICT foreign key,
// e.g. an industry still referenced by companies.
var ErrInUse = errors.New("in use")

// ErrDuplicate matches every *DuplicateError via errors.Is.
var ErrDuplicate = errors.New("duplicate")

// Unique key names from the schema.
const (
	KeyUsername        = "uq_users_username"
	KeyEmail           = "uq_users_email"
	KeyPhone           = "uq_users_phone"
	KeyIndustrySlug    = "uq_industries_slug"
	KeyCompanyName     = "uq_companies_name"
	KeyCompanySlug     = "uq_companies_slug"
	KeyJobSlug         = "uq_jobs_slug"
	KeyApplicationPair = "uq_applications_job_applicant"
)

// DuplicateError reports a unique key violation.  Key is the index name
// without the table prefix MySQL 8 adds.
type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string { return "duplicate entry for " + e.Key }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// IsDuplicateKey reports whether err is a duplicate on the given key.
func IsDuplicateKey(err error, key string) bool {
	var de *DuplicateError
	return errors.As(err, &de) && de.Key == key
}

const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
)

// translate maps driver errors onto the package's error values.  Anything
// it does not recognise is returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlDuplicateEntry:
		return &DuplicateError{Key: duplicateKey(me.Message)}
	case mysqlRowIsReferenced, mysqlRowIsReferenced2:
		return ErrInUse
	}
	return err
}

// duplicateKey extracts the key name from
// "Duplicate entry 'x' for key 'table.uq_name'".
func duplicateKey(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}
