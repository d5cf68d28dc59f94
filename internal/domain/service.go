package domain

import "time"

// ServiceStatus is the lifecycle state of a repair job.
type ServiceStatus string

const (
	ServiceStatusPending    ServiceStatus = "Pending"
	ServiceStatusInProgress ServiceStatus = "In Progress"
	ServiceStatusCompleted  ServiceStatus = "Completed"
	ServiceStatusCancelled  ServiceStatus = "Cancelled"
)

// Valid reports whether s is a known service status.
func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceStatusPending, ServiceStatusInProgress, ServiceStatusCompleted, ServiceStatusCancelled:
		return true
	}
	return false
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Service is a repair job on one vehicle.
type Service struct {
	ID            string        `json:"id"`
	VehicleID     string        `json:"vehicle_id"`
	Description   string        `json:"description"`
	ScheduledDate time.Time     `json:"scheduled_date"`
	Status        ServiceStatus `json:"status"`
	Rating        *int          `json:"rating,omitempty"`
	MechanicID    *string       `json:"mechanic_id,omitempty"`
	InvoiceID     *string       `json:"invoice_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Billable reports whether an invoice may be created from the service.
func (s *Service) Billable() bool {
	return s.Status == ServiceStatusCompleted && s.InvoiceID == nil
}

// Invoiced reports whether an invoice has been created from the service.
func (s *Service) Invoiced() bool { return s.InvoiceID != nil }

// AssignedTo reports whether the service is assigned to mechanicID.
func (s *Service) AssignedTo(mechanicID string) bool {
	return s.MechanicID != nil && *s.MechanicID == mechanicID
}

// ServiceFilter narrows service listings.
type ServiceFilter struct {
	OwnerID    string
	MechanicID string
	VehicleID  string
	Status     ServiceStatus
	// Billable limits results to Completed services without an invoice.
	Billable bool
}
