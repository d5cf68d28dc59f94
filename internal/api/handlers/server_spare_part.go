package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pitlane.io/pitlane/internal/service"
)

type sparePartRequest struct {
	Name          string           `json:"name" validate:"required"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	Quantity      *int             `json:"quantity" validate:"required"`
	CriticalLevel bool             `json:"criticalLevel"`
}

func (r sparePartRequest) input() service.SparePartInput {
	return service.SparePartInput{
		Name:          r.Name,
		Price:         *r.Price,
		Quantity:      *r.Quantity,
		CriticalLevel: r.CriticalLevel,
	}
}

// ListSpareParts handles GET /spare-parts.
func (s *Server) ListSpareParts(c *gin.Context) {
	ps, err := s.parts.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, present(ps, sparePartToAPI))
}

// GetSparePart handles GET /spare-parts/{id}.
func (s *Server) GetSparePart(c *gin.Context) {
	p, err := s.parts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sparePartToAPI(p))
}

// CreateSparePart handles POST /spare-parts.
func (s *Server) CreateSparePart(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req sparePartRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	p, err := s.parts.Create(c.Request.Context(), a, req.input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, sparePartToAPI(p))
}

// UpdateSparePart handles PUT /spare-parts/{id}.
func (s *Server) UpdateSparePart(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req sparePartRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	p, err := s.parts.Update(c.Request.Context(), a, c.Param("id"), req.input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sparePartToAPI(p))
}

// DeleteSparePart handles DELETE /spare-parts/{id}.
func (s *Server) DeleteSparePart(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := s.parts.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
