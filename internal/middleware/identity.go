package middleware

// identity.go holds the context keys JWTAuth fills in and the helpers that
// read them back.  Handlers never parse tokens themselves.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Actor returns the authenticated requester.  ok is false on routes that
// did not pass through JWTAuth or OptionalJWTAuth with a valid token.
func Actor(c echo.Context) (access.Actor, bool) {
	id, _ := c.Get(ctxUserID).(string)
	role, _ := c.Get(ctxRole).(model.Role)
	if id == "" || !role.Valid() {
		return access.Actor{}, false
	}
	return access.Actor{ID: id, Role: role}, true
}

// currentUserID is the throttle and log identity: the user id, or "anon".
func currentUserID(c echo.Context) string {
	if a, ok := Actor(c); ok {
		return a.ID
	}
	return "anon"
}
