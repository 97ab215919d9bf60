package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/job-board/internal/access"
	"github.com/iliyamo/job-board/internal/handler"
	"github.com/iliyamo/job-board/internal/middleware"
)

// registerCatalog mounts industries, locations and companies.  Reads and
// writes require different capabilities; ownership is checked by the service.
func registerCatalog(e *echo.Echo, h *handler.CatalogHandler, o Options) {
	// route level auth keeps unknown /v1 paths a plain 404
	g := e.Group("/v1")
	auth := middleware.JWTAuth(o.JWTSecret)

	readIndustries := middleware.Require(access.ReadIndustries)
	manageIndustries := middleware.Require(access.ManageIndustries)
	g.GET("/industries", h.ListIndustries, auth, readIndustries)
	g.GET("/industries/:id", h.GetIndustry, auth, readIndustries)
	g.POST("/industries", h.CreateIndustry, auth, manageIndustries)
	g.PUT("/industries/:id", h.UpdateIndustry, auth, manageIndustries)
	g.PATCH("/industries/:id", h.UpdateIndustry, auth, manageIndustries)
	g.DELETE("/industries/:id", h.DeleteIndustry, auth, manageIndustries)

	readLocations := middleware.Require(access.ManageLocations, access.ReadCatalog)
	manageLocations := middleware.Require(access.ManageLocations)
	g.GET("/locations", h.ListLocations, auth, readLocations)
	g.GET("/locations/:id", h.GetLocation, auth, readLocations)
	g.POST("/locations", h.CreateLocation, auth, manageLocations)
	g.PUT("/locations/:id", h.UpdateLocation, auth, manageLocations)
	g.PATCH("/locations/:id", h.UpdateLocation, auth, manageLocations)
	g.DELETE("/locations/:id", h.DeleteLocation, auth, manageLocations)

	readCompanies := middleware.Require(access.ManageCompanies, access.ReadCatalog)
	manageCompanies := middleware.Require(access.ManageCompanies)
	g.GET("/companies", h.ListCompanies, auth, readCompanies)
	g.GET("/companies/:id", h.GetCompany, auth, readCompanies)
	g.POST("/companies", h.CreateCompany, auth, manageCompanies)
	g.PUT("/companies/:id", h.UpdateCompany, auth, manageCompanies)
	g.PATCH("/companies/:id", h.UpdateCompany, auth, manageCompanies)
	g.DELETE("/companies/:id", h.DeleteCompany, auth, manageCompanies)
	g.POST("/companies/:id/logo", h.UploadLogo, auth, manageCompanies)
}
