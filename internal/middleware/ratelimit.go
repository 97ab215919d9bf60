package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/logger"
	"github.com/iliyamo/job-board/internal/metrics"
	"github.com/iliyamo/job-board/internal/throttle"
)

// KeyBy selects which identity a throttle scope counts.
type KeyBy int

const (
	ByIP KeyBy = iota
	ByUser
)

// ThrottleRule is one named scope: its quota, who it counts and the message
// returned once the quota is spent.
type ThrottleRule struct {
	Scope   string
	Rate    config.Rate
	KeyBy   KeyBy
	Message string
}

// Throttle rejects requests over rule.Rate with 429.  It runs before the
// handler so throttled requests never reach validation.  When the limiter
// itself fails the request is let through.
func Throttle(cfg config.RateLimitConfig, l throttle.Limiter, rule ThrottleRule) echo.MiddlewareFunc {
	if !cfg.Enabled || l == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg.Prefix, rule, c)
			d, err := l.Allow(c.Request().Context(), key, rule.Rate)
			if err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).Warnf("throttle %s: %v", rule.Scope, err)
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Rate.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				metrics.ThrottledRequests.WithLabelValues(rule.Scope).Inc()
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":       "too_many_requests",
					"message":     fmt.Sprintf("%s Expected available in %d seconds.", rule.Message, secs),
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func buildRateKey(prefix string, rule ThrottleRule, c echo.Context) string {
	parts := []string{prefix, rule.Scope}
	switch rule.KeyBy {
	case ByUser:
		parts = append(parts, "user", currentUserID(c))
	default:
		ip := c.RealIP()
		if ip == "" {
			ip = "unknown"
		}
		parts = append(parts, "ip", ip)
	}
	return strings.Join(parts, ":")
}
