package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SparePart is a catalogue entry with its stock on hand.
// Quantity only changes through catalogue edits or an approval decrement.
type SparePart struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	CriticalLevel bool            `json:"critical_level"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RequestStatus is the decision state of a spare-part request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// Decided reports whether s is terminal.
func (s RequestStatus) Decided() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// SparePartRequest is a mechanic's request to consume stock for a service.
// UnitPrice and TotalPrice are frozen at creation.
type SparePartRequest struct {
	ID          string          `json:"id"`
	SparePartID string          `json:"spare_part_id"`
	VehicleID   string          `json:"vehicle_id"`
	MechanicID  string          `json:"mechanic_id"`
	ServiceID   string          `json:"service_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Status      RequestStatus   `json:"status"`
	DecidedBy   *string         `json:"decided_by,omitempty"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// SparePartName is filled on reads that join the catalogue.
	SparePartName string `json:"spare_part_name,omitempty"`
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	MechanicID string
	ServiceID  string
	Status     RequestStatus
}
