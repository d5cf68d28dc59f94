package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pitlane.io/pitlane/internal/service"
)

type vehicleCreateRequest struct {
	Make  string `json:"make" validate:"required"`
	Model string `json:"model" validate:"required"`
	Year  int    `json:"year" validate:"required"`
	Plate string `json:"plate" validate:"required"`
}

// CreateVehicle handles POST /vehicles.
func (s *Server) CreateVehicle(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req vehicleCreateRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	v, err := s.vehicles.Create(c.Request.Context(), a, service.VehicleInput{
		Make:  req.Make,
		Model: req.Model,
		Year:  req.Year,
		Plate: req.Plate,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, vehicleToAPI(v))
}

// ListVehicles handles GET /vehicles.
func (s *Server) ListVehicles(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	vs, err := s.vehicles.List(c.Request.Context(), a)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, present(vs, vehicleToAPI))
}

// GetVehicle handles GET /vehicles/{id}.
func (s *Server) GetVehicle(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	v, err := s.vehicles.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vehicleToAPI(v))
}

// DeleteVehicle handles DELETE /vehicles/{id}.
func (s *Server) DeleteVehicle(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := s.vehicles.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
