package domain

import (
	"encoding/json"
	"time"
)

// AuditAction names an auditable state change.
type AuditAction string

const (
	ActionServiceAssigned  AuditAction = "service.assigned"
	ActionServiceCompleted AuditAction = "service.completed"
	ActionServiceRated     AuditAction = "service.rated"

	ActionRequestCreated  AuditAction = "spare_part_request.created"
	ActionRequestApproved AuditAction = "spare_part_request.approved"
	ActionRequestRejected AuditAction = "spare_part_request.rejected"

	ActionSparePartCreated AuditAction = "spare_part.created"
	ActionSparePartUpdated AuditAction = "spare_part.updated"
	ActionSparePartDeleted AuditAction = "spare_part.deleted"

	ActionInvoiceCreated       AuditAction = "invoice.created"
	ActionInvoiceStatusChanged AuditAction = "invoice.status_changed"
	ActionInvoiceEmailed       AuditAction = "invoice.emailed"
	ActionInvoiceDeleted       AuditAction = "invoice.deleted"
	ActionInvoiceOverdue       AuditAction = "invoice.overdue"

	ActionVehicleDeleted AuditAction = "vehicle.deleted"
)

// Resource types recorded in audit entries.
const (
	ResourceService          = "service"
	ResourceSparePart        = "spare_part"
	ResourceSparePartRequest = "spare_part_request"
	ResourceInvoice          = "invoice"
	ResourceVehicle          = "vehicle"
)

// AuditEntry is an immutable record of who changed what.
type AuditEntry struct {
	ID           string          `json:"id"`
	Action       AuditAction     `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Actor        string          `json:"actor"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
