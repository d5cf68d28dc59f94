package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusSent    InvoiceStatus = "Sent"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Invoice bills exactly one completed service.
type Invoice struct {
	ID          string          `json:"id"`
	ServiceID   string          `json:"service_id"`
	VehicleID   string          `json:"vehicle_id"`
	UserID      string          `json:"user_id"`
	Items       []InvoiceItem   `json:"items"`
	LaborCost   decimal.Decimal `json:"labor_cost"`
	PartsCost   decimal.Decimal `json:"parts_cost"`
	Tax         decimal.Decimal `json:"tax"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      InvoiceStatus   `json:"status"`
	SentAt      *time.Time      `json:"sent_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsDraft reports whether the invoice may still be deleted.
func (i *Invoice) IsDraft() bool { return i.Status == InvoiceStatusDraft }

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	UserID    string
	ServiceID string
	Status    InvoiceStatus
}
