// Package consistency holds the write-time invariants tying services,
// spare-part requests and invoices together.
//
// Every function is pure: callers load the records, ask the guard, then
// write. Errors are AppErrors ready for the HTTP layer.
package consistency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pitlane.io/pitlane/internal/domain"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
)

// ValidateMoney checks a client-supplied amount: non-negative with at most two decimals.
func ValidateMoney(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperrors.ErrValidation("%s must not be negative", field).
			WithField(field, "min", "must not be negative")
	}
	if d.GreaterThan(domain.MaxMoney) {
		return apperrors.ErrValidation("%s must not exceed %s", field, domain.FormatMoney(domain.MaxMoney)).
			WithField(field, "max", "exceeds "+domain.FormatMoney(domain.MaxMoney))
	}
	if !domain.HasMoneyScale(d) {
		return apperrors.ErrValidation("%s must have at most %d decimal places", field, domain.MoneyScale).
			WithField(field, "scale", "too many decimal places")
	}
	return nil
}

// ValidateQuantity rejects quantities below one or above MaxQuantity.
func ValidateQuantity(qty int) error {
	if qty < 1 {
		return apperrors.ErrValidation("quantity must be at least 1, got %d", qty).
			WithField("quantity", "min", "must be at least 1")
	}
	if qty > domain.MaxQuantity {
		return apperrors.ErrValidation("quantity must not exceed %d, got %d", domain.MaxQuantity, qty).
			WithField("quantity", "max", fmt.Sprintf("must not exceed %d", domain.MaxQuantity))
	}
	return nil
}

// ValidateTotal rejects a derived amount that would not fit the money columns.
func ValidateTotal(field string, total decimal.Decimal) error {
	if total.GreaterThan(domain.MaxMoney) {
		return apperrors.ErrValidation("%s %s exceeds %s", field, domain.FormatMoney(total), domain.FormatMoney(domain.MaxMoney)).
			WithField(field, "max", "exceeds "+domain.FormatMoney(domain.MaxMoney))
	}
	return nil
}

// FreezeRequestTotal prices a request from the catalogue. A client total, when
// supplied, must equal the server-derived value.
func FreezeRequestTotal(part *domain.SparePart, qty int, clientTotal *decimal.Decimal) (decimal.Decimal, error) {
	total := domain.LineTotal(qty, part.Price)
	if err := ValidateTotal("totalPrice", total); err != nil {
		return decimal.Zero, err
	}
	if clientTotal != nil && !clientTotal.Equal(total) {
		return decimal.Zero, apperrors.BadRequest(apperrors.CodeTotalPriceMismatch,
			"totalPrice does not match price × quantity").
			WithParams(map[string]interface{}{
				"expected": domain.FormatMoney(total),
				"received": clientTotal.String(),
			})
	}
	return total, nil
}

// CheckStockAvailable is the advisory stock check done when a request is created.
// The authoritative check is the conditional decrement at approval.
func CheckStockAvailable(part *domain.SparePart, qty int) error {
	if qty > part.Quantity {
		return apperrors.ErrInsufficientStock(part.ID, qty, part.Quantity)
	}
	return nil
}

// CheckAcceptsParts reports whether spare parts may still be requested or
// approved for svc. An invoiced service has a frozen parts cost.
func CheckAcceptsParts(svc *domain.Service) error {
	if svc.Status == domain.ServiceStatusCancelled {
		return apperrors.Conflict(apperrors.CodeServiceCancelled, "service is cancelled").
			WithParams(map[string]interface{}{"service_id": svc.ID})
	}
	if svc.Invoiced() {
		return apperrors.Conflict(apperrors.CodeServiceAlreadyInvoiced, "service has already been invoiced").
			WithParams(map[string]interface{}{"service_id": svc.ID})
	}
	return nil
}

// CheckBillable reports whether an invoice may be created from svc.
func CheckBillable(svc *domain.Service) error {
	if svc.Invoiced() {
		return apperrors.Conflict(apperrors.CodeServiceAlreadyInvoiced, "service has already been invoiced").
			WithParams(map[string]interface{}{"service_id": svc.ID, "invoice_id": *svc.InvoiceID})
	}
	if svc.Status != domain.ServiceStatusCompleted {
		return apperrors.Conflict(apperrors.CodeServiceNotBillable, "only completed services can be invoiced").
			WithParams(map[string]interface{}{"service_id": svc.ID, "status": string(svc.Status)})
	}
	return nil
}

// ValidateItems checks client-supplied invoice lines: each total must equal
// quantity × unitPrice exactly.
func ValidateItems(items []domain.InvoiceItem) error {
	var fieldErrs []apperrors.FieldError
	for i, it := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if it.Description == "" {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: prefix + ".description", Code: "required", Message: "is required"})
		}
		if it.Quantity < 1 || it.Quantity > domain.MaxQuantity {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: prefix + ".quantity", Code: "range", Message: fmt.Sprintf("must be between 1 and %d", domain.MaxQuantity)})
		}
		if !domain.MoneyInRange(it.UnitPrice) || !domain.HasMoneyScale(it.UnitPrice) {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: prefix + ".unitPrice", Code: "money", Message: "must be a non-negative amount with at most 2 decimals"})
		}
		if !domain.HasMoneyScale(it.Total) || it.Total.GreaterThan(domain.MaxMoney) {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: prefix + ".total", Code: "money", Message: "must fit the money range with at most 2 decimals"})
		}
	}
	if len(fieldErrs) > 0 {
		return apperrors.ErrValidation("invalid invoice items").WithFieldErrors(fieldErrs)
	}

	for i, it := range items {
		if want := domain.LineTotal(it.Quantity, it.UnitPrice); !it.Total.Equal(want) {
			return apperrors.BadRequest(apperrors.CodeTotalPriceMismatch,
				"item total does not equal quantity × unitPrice").
				WithParams(map[string]interface{}{
					"index":    i,
					"expected": domain.FormatMoney(want),
					"received": it.Total.String(),
				})
		}
	}
	return nil
}

// DeriveItems builds one invoice line per Approved request.
func DeriveItems(approved []*domain.SparePartRequest) []domain.InvoiceItem {
	items := make([]domain.InvoiceItem, 0, len(approved))
	for _, r := range approved {
		if r.Status != domain.RequestStatusApproved {
			continue
		}
		desc := r.SparePartName
		if desc == "" {
			desc = "Spare part " + r.SparePartID
		}
		items = append(items, domain.InvoiceItem{
			Description: desc,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Total:       r.TotalPrice,
		})
	}
	return items
}

// ReconcilePartsCost returns the parts cost of an invoice. The sum of approved
// request totals and the sum of item totals must be equal.
func ReconcilePartsCost(approved []*domain.SparePartRequest, items []domain.InvoiceItem) (decimal.Decimal, error) {
	fromRequests := domain.SumApproved(approved)
	fromItems := domain.SumItems(items)
	if !fromRequests.Equal(fromItems) {
		return decimal.Zero, apperrors.Conflict(apperrors.CodePartsCostMismatch,
			"invoice items do not add up to the approved spare-part requests").
			WithParams(map[string]interface{}{
				"approved_total": domain.FormatMoney(fromRequests),
				"items_total":    domain.FormatMoney(fromItems),
			})
	}
	return fromRequests, nil
}

// TotalAmount returns partsCost + laborCost + tax.
func TotalAmount(partsCost, laborCost, tax decimal.Decimal) decimal.Decimal {
	return partsCost.Add(laborCost).Add(tax)
}

// ValidateRating checks the 1–5 range.
func ValidateRating(rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperrors.ErrValidation("rating must be between %d and %d", domain.MinRating, domain.MaxRating).
			WithField("rating", "range", "must be between 1 and 5")
	}
	return nil
}
