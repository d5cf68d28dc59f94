package handlers

import (
	"github.com/gin-gonic/gin"

	"pitlane.io/pitlane/internal/api/middleware"
	"pitlane.io/pitlane/internal/domain"
)

// PublicPaths are served without a bearer token, relative to the base URL.
var PublicPaths = []string{
	"/auth/login",
	"/health/",
}

// RegisterHandlers mounts every route under baseURL. Authentication is the
// caller's concern; role gates are applied here per route.
func RegisterHandlers(router gin.IRouter, s *Server, baseURL string) {
	admin := middleware.RequireRole(domain.RoleAdmin)
	mechanic := middleware.RequireRole(domain.RoleMechanic)
	customer := middleware.RequireRole(domain.RoleUser)
	anyone := middleware.RequireRole(domain.RoleUser, domain.RoleMechanic, domain.RoleAdmin)

	g := router.Group(baseURL)

	g.POST("/auth/login", s.Login)
	g.GET("/health/live", s.GetLiveness)
	g.GET("/health/ready", s.GetReadiness)

	g.POST("/vehicles", customer, s.CreateVehicle)
	g.GET("/vehicles", middleware.RequireRole(domain.RoleUser, domain.RoleAdmin), s.ListVehicles)
	g.GET("/vehicles/:id", middleware.RequireRole(domain.RoleUser, domain.RoleAdmin), s.GetVehicle)
	g.DELETE("/vehicles/:id", customer, s.DeleteVehicle)

	g.POST("/services", customer, s.CreateService)
	g.GET("/services", anyone, s.ListServices)
	g.GET("/services/:id", anyone, s.GetService)
	g.PUT("/services/:id/assign", admin, s.AssignService)
	g.PATCH("/services/:id/complete", mechanic, s.CompleteService)
	g.PATCH("/services/:id/rating", customer, s.RateService)

	g.GET("/spare-parts", anyone, s.ListSpareParts)
	g.GET("/spare-parts/:id", anyone, s.GetSparePart)
	g.POST("/spare-parts", admin, s.CreateSparePart)
	g.PUT("/spare-parts/:id", admin, s.UpdateSparePart)
	g.DELETE("/spare-parts/:id", admin, s.DeleteSparePart)

	g.POST("/spare-part-requests", mechanic, s.CreateSparePartRequest)
	g.GET("/spare-part-requests", middleware.RequireRole(domain.RoleMechanic, domain.RoleAdmin), s.ListSparePartRequests)
	g.GET("/spare-part-requests/pending", admin, s.ListPendingSparePartRequests)
	g.GET("/spare-part-requests/:id", middleware.RequireRole(domain.RoleMechanic, domain.RoleAdmin), s.GetSparePartRequest)
	g.PATCH("/spare-part-requests/:id/status", admin, s.DecideSparePartRequest)

	g.POST("/invoices", admin, s.CreateInvoice)
	g.GET("/invoices", middleware.RequireRole(domain.RoleUser, domain.RoleAdmin), s.ListInvoices)
	g.GET("/invoices/:id", middleware.RequireRole(domain.RoleUser, domain.RoleAdmin), s.GetInvoice)
	g.PATCH("/invoices/:id/status", admin, s.UpdateInvoiceStatus)
	g.DELETE("/invoices/:id", admin, s.DeleteInvoice)
	g.POST("/invoices/:id/send-email", admin, s.SendInvoiceEmail)
}
