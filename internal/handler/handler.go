// Package handler adapts HTTP requests to the service layer.  Handlers bind
// and validate the request body, call one service operation and map the
// outcome to a JSON response.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/logger"
	"github.com/iliyamo/job-board/internal/middleware"
	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/service"
)

const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor is the authenticated caller.  Routes without JWTAuth get the zero
// Actor, which no service authorizes.
func actor(c echo.Context) access.Actor {
	a, _ := middleware.Actor(c)
	return a
}

func statusOf(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuth, service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as the standard error body.  Anything that is not a
// *service.Error is logged and hidden behind "internal error".
func fail(c echo.Context, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		body := echo.Map{"error": se.Message}
		if len(se.Fields) > 0 {
			body["fields"] = se.Fields
		}
		return c.JSON(statusOf(se.Kind), body)
	}
	log.WithError(err).WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).
		Errorf("%s %s failed", c.Request().Method, c.Path())
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// bind decodes the body into req and runs the struct validator.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return service.Validation("invalid body")
	}
	return c.Validate(req)
}

func listQuery(c echo.Context) repository.ListQuery {
	search := c.QueryParam("search")
	if search == "" {
		search = c.QueryParam("q")
	}
	return repository.ListQuery{
		Search:   strings.TrimSpace(search),
		Page:     intParam(c, "page"),
		PageSize: intParam(c, "page_size"),
	}
}

// intParam returns 0 for absent or malformed values; Normalize fills defaults.
func intParam(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

func boolParam(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, service.Validation(name + " must be true or false")
	}
	return &b, nil
}

// parseDate accepts YYYY-MM-DD and returns midnight UTC of that day.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		fields := service.FieldErrors{}
		fields.Add(field, "Date has wrong format. Use YYYY-MM-DD.")
		return nil, fields.Err()
	}
	return &t, nil
}
