package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/handler"
	"github.com/iliyamo/job-board/internal/middleware"
)

// registerAuth mounts the anonymous account endpoints.  Register and login
// are throttled per client IP before the body is read.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, o Options) {
	g := e.Group("/v1")
	g.POST("/register", a.Register, o.throttle("register", middleware.ByIP, msgRegisterThrottled))
	g.POST("/login", a.Login, o.throttle("login", middleware.ByIP, msgLoginThrottled))
	g.POST("/token/refresh", a.Refresh)
	// a bearer token is optional: without a refresh_token it revokes every session
	g.POST("/logout", a.Logout, middleware.OptionalJWTAuth(o.JWTSecret))
}

func registerAccount(e *echo.Echo, a *handler.AccountHandler, o Options) {
	me := e.Group("/v1/me", middleware.JWTAuth(o.JWTSecret), middleware.Require(access.ManageOwnProfile))
	me.GET("", a.Me)
	me.PATCH("", a.UpdateMe)
	me.GET("/profile", a.Profile)
	me.PUT("/profile", a.UpdateProfile)
	me.PATCH("/profile", a.UpdateProfile)
	me.POST("/profile/picture", a.UploadPicture)
	me.POST("/profile/resume", a.UploadResume)

	users := e.Group("/v1/users", middleware.JWTAuth(o.JWTSecret), middleware.Require(access.ManageUsers))
	users.GET("", a.ListUsers)
	users.GET("/:id", a.GetUser)
	users.PATCH("/:id", a.UpdateUser)
	users.DELETE("/:id", a.DeactivateUser)
}
