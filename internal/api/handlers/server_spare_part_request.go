package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/usecase"
)

type requestCreateRequest struct {
	SparePartID string           `json:"sparePartId" validate:"required"`
	ServiceID   string           `json:"serviceId" validate:"required"`
	VehicleID   string           `json:"vehicleId"`
	MechanicID  string           `json:"mechanicId"`
	Quantity    *int             `json:"quantity" validate:"required"`
	TotalPrice  *decimal.Decimal `json:"totalPrice"`
}

// CreateSparePartRequest handles POST /spare-part-requests.
func (s *Server) CreateSparePartRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req requestCreateRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	r, err := s.requests.Create(c.Request.Context(), a, usecase.CreateRequestInput{
		SparePartID: req.SparePartID,
		VehicleID:   req.VehicleID,
		ServiceID:   req.ServiceID,
		MechanicID:  req.MechanicID,
		Quantity:    *req.Quantity,
		TotalPrice:  req.TotalPrice,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, requestToAPI(r))
}

// ListSparePartRequests handles GET /spare-part-requests.
func (s *Server) ListSparePartRequests(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rs, err := s.requests.List(c.Request.Context(), a, domain.RequestFilter{
		ServiceID: c.Query("serviceId"),
		Status:    domain.RequestStatus(c.Query("status")),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, present(rs, requestToAPI))
}

// ListPendingSparePartRequests handles GET /spare-part-requests/pending,
// oldest first with an age-based priority tier.
func (s *Server) ListPendingSparePartRequests(c *gin.Context) {
	rs, err := s.gateway.ListPending(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, present(rs, pendingRequestToAPI))
}

// GetSparePartRequest handles GET /spare-part-requests/{id}.
func (s *Server) GetSparePartRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	r, err := s.requests.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requestToAPI(r))
}

// DecideSparePartRequest handles PATCH /spare-part-requests/{id}/status.
func (s *Server) DecideSparePartRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	r, err := s.gateway.Decide(c.Request.Context(), a, c.Param("id"), domain.RequestStatus(req.Status))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requestToAPI(r))
}
