package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is a request quota per window, written as "5/minute" in the
// environment.  Accepted periods: s/sec/second, m/min/minute, h/hour, d/day.
type Rate struct {
	Limit  int
	Window time.Duration
}

func (r Rate) String() string { return fmt.Sprintf("%d/%s", r.Limit, r.Window) }

// ParseRate decodes "N/period".
func ParseRate(s string) (Rate, error) {
	num, period, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rate{}, fmt.Errorf("rate %q: expected N/period", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n < 1 {
		return Rate{}, fmt.Errorf("rate %q: invalid count", s)
	}
	var window time.Duration
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "s", "sec", "second":
		window = time.Second
	case "m", "min", "minute":
		window = time.Minute
	case "h", "hour":
		window = time.Hour
	case "d", "day":
		window = 24 * time.Hour
	default:
		return Rate{}, fmt.Errorf("rate %q: unknown period", s)
	}
	return Rate{Limit: n, Window: window}, nil
}

// RateLimitConfig holds the per-scope throttle rates.  Register and Login
// are counted per client IP, PostJobs and ApplyJob per authenticated user.
type RateLimitConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Prefix   string `mapstructure:"prefix"`
	Register string `mapstructure:"register"`
	Login    string `mapstructure:"login"`
	PostJobs string `mapstructure:"post_jobs"`
	ApplyJob string `mapstructure:"apply_job"`
}

// Rates returns the parsed rate for every scope keyed by scope name.
func (c RateLimitConfig) Rates() (map[string]Rate, error) {
	raw := map[string]string{
		"register":  c.Register,
		"login":     c.Login,
		"postjobs":  c.PostJobs,
		"apply-job": c.ApplyJob,
	}
	out := make(map[string]Rate, len(raw))
	var errs []error
	for scope, v := range raw {
		r, err := ParseRate(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", scope, err))
			continue
		}
		out[scope] = r
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (c RateLimitConfig) validate() error {
	_, err := c.Rates()
	return err
}
