package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/logger"
	"github.com/iliyamo/job-board/internal/metrics"
)

// RequestLog records one log line and the HTTP metrics per request.  The
// route label is the registered path, never the raw URL.
func RequestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			elapsed := time.Since(start)

			metrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())

			entry := log.WithFields(log.Fields{
				"method":  method,
				"route":   route,
				"status":  status,
				"latency": elapsed.String(),
				"ip":      c.RealIP(),
				"user":    currentUserID(c),
			})
			switch {
			case status >= 500:
				entry.WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).Error(c.Request().URL.Path)
			case status >= 400:
				entry.Info(c.Request().URL.Path)
			default:
				entry.Debug(c.Request().URL.Path)
			}
			return nil
		}
	}
}
