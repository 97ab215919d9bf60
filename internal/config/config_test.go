package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "jobs")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "jobboard")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func Test_Config_DefaultsApplied(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.Auth.AccessTTLMin)
	assert.Equal(t, 7, cfg.Auth.RefreshTTLDays)
	assert.Equal(t, 8, cfg.Password.MinLength)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, map[string]bool{"GET": true}, cfg.Cache.MethodSet())
	assert.Equal(t, LevelInfo, cfg.Logger.LogLevel)
	assert.False(t, cfg.Admin.Enabled())

	rates, err := cfg.Limits.Rates()
	require.NoError(t, err)
	assert.Equal(t, Rate{Limit: 5, Window: time.Minute}, rates["login"])
	assert.Equal(t, Rate{Limit: 5, Window: time.Minute}, rates["apply-job"])
}

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "30")
	t.Setenv("THROTTLE_LOGIN", "10/hour")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30, cfg.Auth.AccessTTLMin)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "cache:6380", cfg.Redis.address())

	rates, err := cfg.Limits.Rates()
	require.NoError(t, err)
	assert.Equal(t, Rate{Limit: 10, Window: time.Hour}, rates["login"])
}

func Test_Config_WhenRequiredMissing_ShouldReportAll(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB.User")
	assert.Contains(t, err.Error(), "Auth.JWTSecret")
}

func Test_Config_WhenAdminPartial_ShouldFail(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_USERNAME", "root")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_EMAIL")
}

func Test_ParseRate(t *testing.T) {
	r, err := ParseRate("5/min")
	require.NoError(t, err)
	assert.Equal(t, Rate{Limit: 5, Window: time.Minute}, r)

	for _, bad := range []string{"5", "0/minute", "x/minute", "5/week"} {
		_, err := ParseRate(bad)
		assert.Error(t, err, bad)
	}
}

func Test_Config_ProxyRanges(t *testing.T) {
	cfg := Config{TrustedProxies: " 10.0.0.0/8, 192.0.2.7 ,::1"}
	ranges, err := cfg.ProxyRanges()
	require.NoError(t, err)
	require.Len(t, ranges, 3)
	assert.Equal(t, "10.0.0.0/8", ranges[0].String())
	assert.Equal(t, "192.0.2.7/32", ranges[1].String())
	assert.Equal(t, "::1/128", ranges[2].String())

	empty, err := Config{}.ProxyRanges()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func Test_Config_WhenTrustedProxyInvalid_ShouldFail(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-ip")
}
