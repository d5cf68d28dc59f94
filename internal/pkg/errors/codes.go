package errors

import (
	"fmt"
	"net/http"
)

// Error code constants.
// Codes are stable identifiers for clients; messages are English and informational only.

// Validation error codes.
const (
	CodeInvalidRequestField = "INVALID_REQUEST_FIELD"
	CodeValidationFailed    = "VALIDATION_FAILED"
)

// Lookup error codes.
const (
	CodeUserNotFound             = "USER_NOT_FOUND"
	CodeVehicleNotFound          = "VEHICLE_NOT_FOUND"
	CodeServiceNotFound          = "SERVICE_NOT_FOUND"
	CodeSparePartNotFound        = "SPARE_PART_NOT_FOUND"
	CodeSparePartRequestNotFound = "SPARE_PART_REQUEST_NOT_FOUND"
	CodeInvoiceNotFound          = "INVOICE_NOT_FOUND"
)

// Authorization error codes.
const (
	CodeAuthFailed           = "AUTH_FAILED"
	CodeForbidden            = "FORBIDDEN"
	CodeMechanicCompleteOnly = "MECHANIC_COMPLETE_ONLY"
	CodeNotVehicleOwner      = "NOT_VEHICLE_OWNER"
	CodeNotAssignedMechanic  = "NOT_ASSIGNED_MECHANIC"
	CodeMechanicRecipient    = "RECIPIENT_IS_MECHANIC"
)

// Consistency error codes.
const (
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeRequestAlreadyDecided  = "REQUEST_ALREADY_DECIDED"
	CodePartsCostMismatch      = "PARTS_COST_MISMATCH"
	CodeTotalPriceMismatch     = "TOTAL_PRICE_MISMATCH"
	CodeInvoiceNotDraft        = "INVOICE_NOT_DRAFT"
	CodeServiceNotBillable     = "SERVICE_NOT_BILLABLE"
	CodeServiceAlreadyInvoiced = "SERVICE_ALREADY_INVOICED"
	CodeServiceNotCompleted    = "SERVICE_NOT_COMPLETED"
	CodeServiceCancelled       = "SERVICE_CANCELLED"
	CodeRatingAlreadySet       = "RATING_ALREADY_SET"
	CodePlateExists            = "PLATE_ALREADY_EXISTS"
	CodeEmailExists            = "EMAIL_ALREADY_EXISTS"
	CodeSparePartInUse         = "SPARE_PART_IN_USE"
	CodeVehicleHasInvoices     = "VEHICLE_HAS_ISSUED_INVOICES"
)

// Dependency error codes.
const (
	CodeMailDispatchFailed = "MAIL_DISPATCH_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Convenience constructors using predefined codes.

// ErrValidation creates a 400 validation error.
func ErrValidation(format string, args ...interface{}) *AppError {
	return BadRequest(CodeValidationFailed, fmt.Sprintf(format, args...))
}

// ErrInvalidRequestField creates a bad request error for a forbidden or unknown field.
func ErrInvalidRequestField(fieldName string) *AppError {
	return &AppError{
		Code:       CodeInvalidRequestField,
		Message:    "request contains forbidden field: " + fieldName,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ErrNotFoundf creates a 404 error for the named resource.
func ErrNotFoundf(code, resource, id string) *AppError {
	return NotFound(code, resource+" not found").WithParam("id", id)
}

// ErrMailDispatch creates the 502 returned when the mail transport rejects an
// invoice. The invoice is left unchanged.
func ErrMailDispatch(err error, invoiceID string) *AppError {
	return Wrap(err, CodeMailDispatchFailed, "failed to dispatch invoice email", http.StatusBadGateway).
		WithParam("invoice_id", invoiceID)
}

// ErrInsufficientStock creates the 409 returned when a part cannot cover a quantity.
func ErrInsufficientStock(sparePartID string, requested, available int) *AppError {
	return Conflict(CodeInsufficientStock, "insufficient stock for spare part").
		WithParams(map[string]interface{}{
			"spare_part_id": sparePartID,
			"requested":     requested,
			"available":     available,
		})
}
