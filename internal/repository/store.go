// Package repository defines persistence ports for the workshop records and
// their PostgreSQL implementation.
//
// Conditional writes report whether a row was affected instead of returning
// an error, so callers can turn a lost race into the right domain error.
package repository

import (
	"context"
	"errors"
	"time"

	"pitlane.io/pitlane/internal/domain"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrUniqueViolation is returned when a write collides with a unique key.
	ErrUniqueViolation = errors.New("unique constraint violated")
	// ErrReferenced is returned when a delete is blocked by referencing rows.
	ErrReferenced = errors.New("record is still referenced")
)

// UserRepo persists accounts.
type UserRepo interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// VehicleRepo persists vehicles.
type VehicleRepo interface {
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	// ListVehicles returns vehicles of ownerID, or all vehicles when ownerID is empty.
	ListVehicles(ctx context.Context, ownerID string) ([]*domain.Vehicle, error)
	// DeleteVehicle removes the vehicle with its services, requests and invoices.
	DeleteVehicle(ctx context.Context, id string) error
	// CountIssuedInvoices counts non-Draft invoices billed for the vehicle.
	CountIssuedInvoices(ctx context.Context, vehicleID string) (int, error)
}

// ServiceRepo persists repair jobs.
type ServiceRepo interface {
	CreateService(ctx context.Context, s *domain.Service) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	// LockService reads the service and, inside a transaction, holds its row lock until commit.
	LockService(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context, f domain.ServiceFilter) ([]*domain.Service, error)
	AssignService(ctx context.Context, id string, mechanicID *string, status domain.ServiceStatus) (*domain.Service, error)
	// CompareAndSetServiceStatus moves status from -> to; false when the row is not in from.
	CompareAndSetServiceStatus(ctx context.Context, id string, from, to domain.ServiceStatus) (bool, error)
	// SetServiceRating stores rating only when none is set and the service is Completed.
	SetServiceRating(ctx context.Context, id string, rating int) (bool, error)
	// LinkServiceInvoice sets invoice_id only on a Completed service without one.
	LinkServiceInvoice(ctx context.Context, serviceID, invoiceID string) (bool, error)
	// UnlinkServiceInvoice clears invoice_id when it still points at invoiceID.
	UnlinkServiceInvoice(ctx context.Context, serviceID, invoiceID string) error
}

// SparePartRepo persists the catalogue and its stock counters.
type SparePartRepo interface {
	CreateSparePart(ctx context.Context, p *domain.SparePart) error
	GetSparePart(ctx context.Context, id string) (*domain.SparePart, error)
	ListSpareParts(ctx context.Context) ([]*domain.SparePart, error)
	UpdateSparePart(ctx context.Context, p *domain.SparePart) error
	DeleteSparePart(ctx context.Context, id string) error
	// DecrementStock subtracts qty only if at least qty is on hand.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
}

// RequestRepo persists spare-part requests.
type RequestRepo interface {
	CreateSparePartRequest(ctx context.Context, r *domain.SparePartRequest) error
	GetSparePartRequest(ctx context.Context, id string) (*domain.SparePartRequest, error)
	ListSparePartRequests(ctx context.Context, f domain.RequestFilter) ([]*domain.SparePartRequest, error)
	// DecideSparePartRequest flips a Pending request to status; false when already decided.
	DecideSparePartRequest(ctx context.Context, id string, status domain.RequestStatus, decidedBy string, at time.Time) (bool, error)
	// ListApprovedRequests returns Approved requests of a service with the part name joined.
	ListApprovedRequests(ctx context.Context, serviceID string) ([]*domain.SparePartRequest, error)
}

// InvoiceRepo persists invoices and their items.
type InvoiceRepo interface {
	CreateInvoice(ctx context.Context, inv *domain.Invoice) error
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, f domain.InvoiceFilter) ([]*domain.Invoice, error)
	// UpdateInvoiceStatus writes status; entering Sent stamps sent_at only if unset.
	UpdateInvoiceStatus(ctx context.Context, id string, status domain.InvoiceStatus, at time.Time) (*domain.Invoice, error)
	// MarkInvoiceSent moves a Draft invoice to Sent; false when it is no longer Draft.
	MarkInvoiceSent(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkInvoicesOverdue moves Sent invoices with sent_at before sentBefore
	// to Overdue and returns their ids.
	MarkInvoicesOverdue(ctx context.Context, sentBefore, at time.Time) ([]string, error)
	// DeleteDraftInvoice deletes the invoice only while Draft.
	DeleteDraftInvoice(ctx context.Context, id string) (bool, error)
}

// AuditRepo appends audit entries.
type AuditRepo interface {
	InsertAuditLog(ctx context.Context, e *domain.AuditEntry) error
}

// Store is the full persistence port.
type Store interface {
	UserRepo
	VehicleRepo
	ServiceRepo
	SparePartRepo
	RequestRepo
	InvoiceRepo
	AuditRepo

	// InTx runs fn in one transaction. fn's error rolls everything back.
	// Calling InTx on a transactional Store joins the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
