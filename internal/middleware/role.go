package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
)

// Require aborts with 403 unless the authenticated role holds at least one
// of actions.  It must run after JWTAuth.  Ownership of the addressed object
// is checked later by the service.
func Require(actions ...access.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := Actor(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if !access.CanAny(a.Role, actions...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}
			return next(c)
		}
	}
}
