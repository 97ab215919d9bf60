package throttle

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/iliyamo/job-board/internal/config"
)

// MemoryLimiter keeps window counters in process.  Counters are shared by
// every goroutine of the process but not across replicas.
type MemoryLimiter struct {
	cache *gocache.Cache
	now   func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{cache: gocache.New(time.Minute, 5*time.Minute), now: time.Now}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, rate config.Rate) (Decision, error) {
	for {
		// Add fails when a live counter exists, which is the common case.
		_ = l.cache.Add(key, int64(0), rate.Window)
		n, err := l.cache.IncrementInt64(key, 1)
		if err != nil {
			// expired between Add and Increment
			continue
		}
		var ttl time.Duration
		if _, exp, ok := l.cache.GetWithExpiration(key); ok && !exp.IsZero() {
			ttl = exp.Sub(l.now())
		}
		return decide(n, rate, ttl), nil
	}
}

// Reset drops every counter.
func (l *MemoryLimiter) Reset() { l.cache.Flush() }
