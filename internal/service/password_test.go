package service

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_PasswordPolicy_Check(t *testing.T) {
	p := PasswordPolicy{MinLength: 8, MaxSimilarity: 0.7}
	who := PersonalInfo{Username: "wanjiku", Email: "wanjiku.kamau@example.com", FirstName: "Wanjiku", LastName: "Kamau"}

	cases := []struct {
		name     string
		password string
		want     []string
	}{
		{"strong", goodPassword, nil},
		{"short", "Ab3$x", []string{"This password is too short. It must contain at least 8 characters."}},
		{"common", "qwerty123", []string{"This password is too common."}},
		{"numeric", "8274619305", []string{"This password is entirely numeric."}},
		{"username", "wanjiku1", []string{"The password is too similar to the username."}},
		{"too long", strings.Repeat("x7", 40), []string{"Ensure this password has at most 72 bytes."}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Check(tc.password, who)
			for _, msg := range tc.want {
				assert.Contains(t, got, msg)
			}
			if tc.want == nil {
				assert.Empty(t, got)
			}
		})
	}
}

func Test_Similarity_ShouldBeSymmetricAndBounded(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abc", "cba"))
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
	assert.InDelta(t, similarity("kamau99", "kamau"), similarity("kamau", "kamau99"), 1e-9)
}

type purgeStub struct {
	calls atomic.Int32
	err   error
}

func (p *purgeStub) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func Test_NewTokenCleaner_WhenScheduleInvalid_ShouldFail(t *testing.T) {
	_, err := NewTokenCleaner(&purgeStub{}, "")
	assert.Error(t, err)

	_, err = NewTokenCleaner(&purgeStub{}, "not a schedule")
	assert.Error(t, err)
}

func Test_TokenCleaner_Purge_ShouldCallRepository(t *testing.T) {
	stub := &purgeStub{}
	tc, err := NewTokenCleaner(stub, "@every 1h")
	require.NoError(t, err)
	defer tc.Stop()

	tc.purge()
	stub.err = errors.New("db down")
	tc.purge()
	assert.Equal(t, int32(2), stub.calls.Load())
}
