package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/handler"
	"github.com/iliyamo/job-board/internal/middleware"
)

func registerJobs(e *echo.Echo, h *handler.JobHandler, o Options) {
	g := e.Group("/v1/postjobs", middleware.JWTAuth(o.JWTSecret))
	modify := middleware.Require(access.ModifyJobs)
	g.GET("", h.List, middleware.Require(access.ReadJobs))
	g.GET("/:id", h.Get, middleware.Require(access.ReadJobs))
	g.POST("", h.Create, middleware.Require(access.PostJobs), o.throttle("postjobs", middleware.ByUser, msgThrottled))
	g.PUT("/:id", h.Update, modify)
	g.PATCH("/:id", h.Update, modify)
	g.DELETE("/:id", h.Delete, modify)

	// public board, served from the response cache when Redis is up
	e.GET("/v1/availablejobs", h.Available, o.cache())
	e.GET("/v1/availablejobs/:id", h.AvailableDetail, o.cache())
}

func registerApplications(e *echo.Echo, h *handler.ApplicationHandler, o Options) {
	auth := middleware.JWTAuth(o.JWTSecret)

	e.POST("/v1/apply-job", h.Apply, auth, middleware.Require(access.ApplyToJobs),
		o.throttle("apply-job", middleware.ByUser, msgThrottled))

	mine := e.Group("/v1/my-applications-history", auth, middleware.Require(access.ReadOwnApplications))
	mine.GET("", h.MyHistory)
	mine.GET("/:id", h.MyApplication)

	jobs := e.Group("/v1/job-applications-history", auth)
	review := middleware.Require(access.ReviewApplications)
	jobs.GET("", h.JobHistory, middleware.Require(access.ReadJobApplications))
	jobs.GET("/:id", h.JobApplication, middleware.Require(access.ReadJobApplications))
	jobs.PUT("/:id", h.Review, review)
	jobs.PATCH("/:id", h.Review, review)
}
