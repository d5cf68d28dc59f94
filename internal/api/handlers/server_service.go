package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/service"
)

type serviceCreateRequest struct {
	VehicleID     string `json:"vehicleId" validate:"required"`
	Description   string `json:"description" validate:"required"`
	ScheduledDate string `json:"scheduledDate" validate:"required"`
}

type serviceAssignRequest struct {
	MechanicID *string `json:"mechanicId"`
	Status     string  `json:"status" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ratingRequest struct {
	Rating *int `json:"rating" validate:"required"`
}

// CreateService handles POST /services.
func (s *Server) CreateService(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req serviceCreateRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	when, err := parseDate("scheduledDate", req.ScheduledDate)
	if err != nil {
		_ = c.Error(err)
		return
	}

	svc, err := s.services.Create(c.Request.Context(), a, service.CreateServiceInput{
		VehicleID:     req.VehicleID,
		Description:   req.Description,
		ScheduledDate: when,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, serviceToAPI(svc))
}

// ListServices handles GET /services.
func (s *Server) ListServices(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	billable, err := queryBool(c, "billable")
	if err != nil {
		_ = c.Error(err)
		return
	}
	svcs, err := s.services.List(c.Request.Context(), a, domain.ServiceFilter{
		VehicleID: c.Query("vehicleId"),
		Status:    domain.ServiceStatus(c.Query("status")),
		Billable:  billable,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, present(svcs, serviceToAPI))
}

// GetService handles GET /services/{id}.
func (s *Server) GetService(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	svc, err := s.services.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, serviceToAPI(svc))
}

// AssignService handles PUT /services/{id}/assign.
func (s *Server) AssignService(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req serviceAssignRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if req.MechanicID != nil && *req.MechanicID == "" {
		req.MechanicID = nil
	}

	svc, err := s.services.Assign(c.Request.Context(), a, c.Param("id"), req.MechanicID, domain.ServiceStatus(req.Status))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, serviceToAPI(svc))
}

// CompleteService handles PATCH /services/{id}/complete.
func (s *Server) CompleteService(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	svc, err := s.services.Complete(c.Request.Context(), a, c.Param("id"), domain.ServiceStatus(req.Status))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, serviceToAPI(svc))
}

// RateService handles PATCH /services/{id}/rating.
func (s *Server) RateService(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req ratingRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	svc, err := s.services.Rate(c.Request.Context(), a, c.Param("id"), *req.Rating)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, serviceToAPI(svc))
}
