// Package throttle counts requests per key in fixed windows.  The Redis
// limiter shares counters across processes; the memory limiter is used when
// Redis is not configured or fails.
package throttle

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/logger"
)

// Decision is the outcome of one Allow call.  RetryAfter is set only when
// the request was rejected.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string, rate config.Rate) (Decision, error)
}

func decide(count int64, rate config.Rate, ttl time.Duration) Decision {
	d := Decision{Allowed: count <= int64(rate.Limit)}
	if d.Allowed {
		d.Remaining = rate.Limit - int(count)
		return d
	}
	if ttl <= 0 {
		ttl = rate.Window
	}
	d.RetryAfter = ttl
	return d
}

// Fallback asks primary first and switches to secondary when primary errors.
type Fallback struct {
	primary   Limiter
	secondary Limiter
}

func NewFallback(primary, secondary Limiter) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Allow(ctx context.Context, key string, rate config.Rate) (Decision, error) {
	d, err := f.primary.Allow(ctx, key, rate)
	if err == nil {
		return d, nil
	}
	log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).Warnf("throttle backend failed, using memory: %v", err)
	return f.secondary.Allow(ctx, key, rate)
}
