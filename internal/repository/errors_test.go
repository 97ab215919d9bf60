package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func Test_Translate_WhenDuplicateEntry_ShouldExtractKey(t *testing.T) {
	cases := map[string]string{
		"Duplicate entry 'acme' for key 'companies.uq_companies_name'":        KeyCompanyName,
		"Duplicate entry 'acme' for key 'uq_companies_slug'":                  KeyCompanySlug,
		"Duplicate entry 'j1-u1' for key 'applications.uq_applications_job_applicant'": KeyApplicationPair,
	}
	for msg, key := range cases {
		err := translate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: msg}))
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.True(t, IsDuplicateKey(err, key), msg)
	}
}

func Test_Translate_WhenForeignKeyRestrict_ShouldBeInUse(t *testing.T) {
	err := translate(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})
	assert.ErrorIs(t, err, ErrInUse)
}

func Test_Translate_ShouldPassThroughOtherErrors(t *testing.T) {
	other := errors.New("connection reset")
	assert.Same(t, other, translate(other))
	assert.Nil(t, translate(nil))

	lock := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	assert.Equal(t, error(lock), translate(lock))
}

func Test_IsDuplicateKey_WhenDifferentKey_ShouldBeFalse(t *testing.T) {
	err := &DuplicateError{Key: KeyEmail}
	assert.False(t, IsDuplicateKey(err, KeyUsername))
	assert.False(t, IsDuplicateKey(errors.New("x"), KeyUsername))
}
