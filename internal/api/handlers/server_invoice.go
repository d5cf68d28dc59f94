package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/usecase"
)

type invoiceItemRequest struct {
	Description string           `json:"description" validate:"required"`
	Quantity    *int             `json:"quantity" validate:"required"`
	UnitPrice   *decimal.Decimal `json:"unitPrice" validate:"required"`
	Total       *decimal.Decimal `json:"total" validate:"required"`
}

type invoiceCreateRequest struct {
	ServiceID string               `json:"serviceId" validate:"required"`
	VehicleID string               `json:"vehicleId" validate:"required"`
	UserID    string               `json:"userId" validate:"required"`
	LaborCost *decimal.Decimal     `json:"laborCost" validate:"required"`
	Tax       *decimal.Decimal     `json:"tax" validate:"required"`
	Items     []invoiceItemRequest `json:"items" validate:"omitempty,dive"`
}

type sendEmailRequest struct {
	RecipientEmail string `json:"recipientEmail" validate:"omitempty,email"`
}

func (r invoiceCreateRequest) input() usecase.CreateInvoiceInput {
	in := usecase.CreateInvoiceInput{
		ServiceID: r.ServiceID,
		VehicleID: r.VehicleID,
		UserID:    r.UserID,
		LaborCost: *r.LaborCost,
		Tax:       *r.Tax,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, domain.InvoiceItem{
			Description: it.Description,
			Quantity:    *it.Quantity,
			UnitPrice:   *it.UnitPrice,
			Total:       *it.Total,
		})
	}
	return in
}

// CreateInvoice handles POST /invoices.
func (s *Server) CreateInvoice(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req invoiceCreateRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	inv, err := s.invoices.Create(c.Request.Context(), a, req.input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, invoiceToAPI(inv))
}

// ListInvoices handles GET /invoices.
func (s *Server) ListInvoices(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	invs, err := s.invoices.List(c.Request.Context(), a, domain.InvoiceFilter{
		ServiceID: c.Query("serviceId"),
		Status:    domain.InvoiceStatus(c.Query("status")),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, present(invs, invoiceToAPI))
}

// GetInvoice handles GET /invoices/{id}.
func (s *Server) GetInvoice(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	inv, err := s.invoices.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, invoiceToAPI(inv))
}

// UpdateInvoiceStatus handles PATCH /invoices/{id}/status.
func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	inv, err := s.invoices.UpdateStatus(c.Request.Context(), a, c.Param("id"), domain.InvoiceStatus(req.Status))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, invoiceToAPI(inv))
}

// DeleteInvoice handles DELETE /invoices/{id}.
func (s *Server) DeleteInvoice(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := s.invoices.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendInvoiceEmail handles POST /invoices/{id}/send-email. The body is
// optional; without a recipient the vehicle owner's address is used.
func (s *Server) SendInvoiceEmail(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req sendEmailRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	inv, err := s.invoices.SendEmail(c.Request.Context(), a, c.Param("id"), req.RecipientEmail)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, invoiceToAPI(inv))
}
