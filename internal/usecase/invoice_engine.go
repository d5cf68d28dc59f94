package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	"pitlane.io/pitlane/internal/governance/consistency"
	"pitlane.io/pitlane/internal/notification"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// CreateInvoiceInput is an admin's invoice request. Nil or empty Items
// means the lines are derived from the approved requests.
type CreateInvoiceInput struct {
	ServiceID string
	VehicleID string
	UserID    string
	LaborCost decimal.Decimal
	Tax       decimal.Decimal
	Items     []domain.InvoiceItem
}

// InvoiceEngine derives invoices from completed services and drives their
// Draft -> Sent -> Paid|Overdue lifecycle.
type InvoiceEngine struct {
	store       repository.Store
	mailer      notification.Mailer
	renderer    *notification.InvoiceRenderer
	auditLogger *audit.Logger
	now         func() time.Time
}

// NewInvoiceEngine creates a new InvoiceEngine.
func NewInvoiceEngine(store repository.Store, mailer notification.Mailer, renderer *notification.InvoiceRenderer, auditLogger *audit.Logger) *InvoiceEngine {
	return &InvoiceEngine{
		store:       store,
		mailer:      mailer,
		renderer:    renderer,
		auditLogger: auditLogger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func requireAdmin(actor domain.Actor, what string) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden(apperrors.CodeForbidden, "only admins can "+what)
	}
	return nil
}

// Create bills a Completed, un-invoiced service. The invoice insert and the
// service link commit together; the service row stays locked meanwhile so
// no approval can change the parts cost underneath.
func (e *InvoiceEngine) Create(ctx context.Context, actor domain.Actor, in CreateInvoiceInput) (*domain.Invoice, error) {
	if err := requireAdmin(actor, "create invoices"); err != nil {
		return nil, err
	}
	if err := consistency.ValidateMoney("laborCost", in.LaborCost); err != nil {
		return nil, err
	}
	if err := consistency.ValidateMoney("tax", in.Tax); err != nil {
		return nil, err
	}
	if len(in.Items) > 0 {
		if err := consistency.ValidateItems(in.Items); err != nil {
			return nil, err
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate invoice id: %w", err)
	}

	var inv *domain.Invoice
	err = e.store.InTx(ctx, func(tx repository.Store) error {
		svc, err := tx.LockService(ctx, in.ServiceID)
		if err != nil {
			return lookupErr(err, apperrors.CodeServiceNotFound, "service", in.ServiceID)
		}
		if err := consistency.CheckBillable(svc); err != nil {
			return err
		}

		vehicle, err := tx.GetVehicle(ctx, svc.VehicleID)
		if err != nil {
			return lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", svc.VehicleID)
		}
		if in.VehicleID != vehicle.ID {
			return apperrors.ErrValidation("vehicleId does not match the service's vehicle").
				WithField("vehicleId", "mismatch", "must be the service's vehicle")
		}
		if in.UserID != vehicle.OwnerID {
			return apperrors.ErrValidation("userId does not match the vehicle owner").
				WithField("userId", "mismatch", "must be the vehicle owner")
		}

		approved, err := tx.ListApprovedRequests(ctx, svc.ID)
		if err != nil {
			return fmt.Errorf("list approved requests of service %s: %w", svc.ID, err)
		}
		items := in.Items
		if len(items) == 0 {
			items = consistency.DeriveItems(approved)
		}
		partsCost, err := consistency.ReconcilePartsCost(approved, items)
		if err != nil {
			return err
		}

		total := consistency.TotalAmount(partsCost, in.LaborCost, in.Tax)
		if err := consistency.ValidateTotal("totalAmount", total); err != nil {
			return err
		}

		now := e.now()
		inv = &domain.Invoice{
			ID:          id.String(),
			ServiceID:   svc.ID,
			VehicleID:   vehicle.ID,
			UserID:      vehicle.OwnerID,
			Items:       items,
			LaborCost:   in.LaborCost,
			PartsCost:   partsCost,
			Tax:         in.Tax,
			TotalAmount: total,
			Status:      domain.InvoiceStatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.CreateInvoice(ctx, inv); err != nil {
			if errors.Is(err, repository.ErrUniqueViolation) {
				return alreadyInvoiced(svc.ID)
			}
			return fmt.Errorf("create invoice: %w", err)
		}

		linked, err := tx.LinkServiceInvoice(ctx, svc.ID, inv.ID)
		if err != nil {
			return fmt.Errorf("link service %s to invoice %s: %w", svc.ID, inv.ID, err)
		}
		if !linked {
			return alreadyInvoiced(svc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.auditLogger != nil {
		_ = e.auditLogger.LogInvoice(ctx, domain.ActionInvoiceCreated, inv.ID, actor.UserID, map[string]interface{}{
			"service_id":   inv.ServiceID,
			"parts_cost":   domain.FormatMoney(inv.PartsCost),
			"total_amount": domain.FormatMoney(inv.TotalAmount),
			"items":        len(inv.Items),
		})
	}
	logger.Info("Invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("service_id", inv.ServiceID),
		zap.String("total_amount", domain.FormatMoney(inv.TotalAmount)),
		zap.String("actor", actor.UserID),
	)
	return inv, nil
}

func alreadyInvoiced(serviceID string) error {
	return apperrors.Conflict(apperrors.CodeServiceAlreadyInvoiced, "service has already been invoiced").
		WithParams(map[string]interface{}{"service_id": serviceID})
}

// UpdateStatus writes any status value. The first entry into Sent stamps sentAt.
func (e *InvoiceEngine) UpdateStatus(ctx context.Context, actor domain.Actor, id string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if err := requireAdmin(actor, "change invoice status"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.ErrValidation("unknown invoice status %q", status).
			WithField("status", "oneof", "must be Draft, Sent, Paid or Overdue")
	}

	before, err := e.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeInvoiceNotFound, "invoice", id)
	}
	inv, err := e.store.UpdateInvoiceStatus(ctx, id, status, e.now())
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeInvoiceNotFound, "invoice", id)
	}

	if e.auditLogger != nil {
		_ = e.auditLogger.LogInvoice(ctx, domain.ActionInvoiceStatusChanged, id, actor.UserID, map[string]interface{}{
			"from": string(before.Status),
			"to":   string(status),
		})
	}
	logger.Transition("invoice_id", id, string(before.Status), string(status), actor.UserID)
	return inv, nil
}

// SendEmail renders the invoice, dispatches it, and only then marks a Draft
// invoice Sent. A failed dispatch leaves the invoice exactly as it was.
// Re-sending an already sent invoice changes neither status nor sentAt.
func (e *InvoiceEngine) SendEmail(ctx context.Context, actor domain.Actor, id, recipientEmail string) (*domain.Invoice, error) {
	if err := requireAdmin(actor, "send invoices"); err != nil {
		return nil, err
	}
	if e.mailer == nil || e.renderer == nil {
		return nil, fmt.Errorf("invoice mail transport is not configured")
	}

	view, err := e.loadView(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.Owner.Role == domain.RoleMechanic {
		return nil, apperrors.Forbidden(apperrors.CodeMechanicRecipient, "invoice recipient must not be a mechanic").
			WithParams(map[string]interface{}{"user_id": view.Owner.ID})
	}

	to := view.Owner.Email
	if r := strings.TrimSpace(recipientEmail); r != "" {
		to = r
	}

	subject, body, err := e.renderer.Render(*view)
	if err != nil {
		return nil, fmt.Errorf("render invoice email: %w", err)
	}

	if err := e.mailer.SendMail(ctx, to, subject, body); err != nil {
		logger.Error("Invoice email dispatch failed",
			zap.String("invoice_id", id),
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, apperrors.ErrMailDispatch(err, id)
	}

	inv := view.Invoice
	if inv.IsDraft() {
		marked, err := e.store.MarkInvoiceSent(ctx, id, e.now())
		if err != nil {
			return nil, fmt.Errorf("mark invoice %s sent: %w", id, err)
		}
		if marked {
			logger.Transition("invoice_id", id, string(domain.InvoiceStatusDraft), string(domain.InvoiceStatusSent), actor.UserID)
		}
		if inv, err = e.store.GetInvoice(ctx, id); err != nil {
			return nil, lookupErr(err, apperrors.CodeInvoiceNotFound, "invoice", id)
		}
	}

	if e.auditLogger != nil {
		_ = e.auditLogger.LogInvoice(ctx, domain.ActionInvoiceEmailed, id, actor.UserID, map[string]interface{}{
			"to":     to,
			"status": string(inv.Status),
		})
	}
	logger.Info("Invoice emailed",
		zap.String("invoice_id", id),
		zap.String("to", to),
		zap.String("actor", actor.UserID),
	)
	return inv, nil
}

// SystemActor is recorded for transitions made by background jobs.
const SystemActor = "system"

// MarkOverdue moves every Sent invoice whose payment terms have elapsed to
// Overdue. It returns the number of invoices moved.
func (e *InvoiceEngine) MarkOverdue(ctx context.Context, terms time.Duration) (int, error) {
	if terms <= 0 {
		return 0, fmt.Errorf("payment terms must be positive, got %s", terms)
	}
	now := e.now()
	ids, err := e.store.MarkInvoicesOverdue(ctx, now.Add(-terms), now)
	if err != nil {
		return 0, fmt.Errorf("mark invoices overdue: %w", err)
	}
	for _, id := range ids {
		if e.auditLogger != nil {
			_ = e.auditLogger.LogInvoice(ctx, domain.ActionInvoiceOverdue, id, SystemActor, map[string]interface{}{
				"terms": terms.String(),
			})
		}
		logger.Transition("invoice_id", id, string(domain.InvoiceStatusSent), string(domain.InvoiceStatusOverdue), SystemActor)
	}
	return len(ids), nil
}

func (e *InvoiceEngine) loadView(ctx context.Context, id string) (*notification.InvoiceView, error) {
	inv, err := e.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeInvoiceNotFound, "invoice", id)
	}
	svc, err := e.store.GetService(ctx, inv.ServiceID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", inv.ServiceID)
	}
	vehicle, err := e.store.GetVehicle(ctx, inv.VehicleID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", inv.VehicleID)
	}
	owner, err := e.store.GetUser(ctx, vehicle.OwnerID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeUserNotFound, "user", vehicle.OwnerID)
	}
	return &notification.InvoiceView{Invoice: inv, Service: svc, Vehicle: vehicle, Owner: owner}, nil
}

// Delete removes a Draft invoice and frees its service for re-invoicing.
func (e *InvoiceEngine) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor, "delete invoices"); err != nil {
		return err
	}

	var serviceID string
	err := e.store.InTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return lookupErr(err, apperrors.CodeInvoiceNotFound, "invoice", id)
		}
		serviceID = inv.ServiceID

		deleted, err := tx.DeleteDraftInvoice(ctx, id)
		if err != nil {
			return fmt.Errorf("delete invoice %s: %w", id, err)
		}
		if !deleted {
			return apperrors.Conflict(apperrors.CodeInvoiceNotDraft, "only draft invoices can be deleted").
				WithParams(map[string]interface{}{"id": id, "status": string(inv.Status)})
		}
		if err := tx.UnlinkServiceInvoice(ctx, inv.ServiceID, id); err != nil {
			return fmt.Errorf("unlink service %s: %w", inv.ServiceID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if e.auditLogger != nil {
		_ = e.auditLogger.LogInvoice(ctx, domain.ActionInvoiceDeleted, id, actor.UserID, map[string]interface{}{
			"service_id": serviceID,
		})
	}
	logger.Info("Invoice deleted",
		zap.String("invoice_id", id),
		zap.String("service_id", serviceID),
		zap.String("actor", actor.UserID),
	)
	return nil
}

// Get returns an invoice to an admin or its bill-to user.
func (e *InvoiceEngine) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Invoice, error) {
	inv, err := e.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeInvoiceNotFound, "invoice", id)
	}
	if actor.IsAdmin() || (actor.Role == domain.RoleUser && inv.UserID == actor.UserID) {
		return inv, nil
	}
	return nil, apperrors.ErrNotFoundf(apperrors.CodeInvoiceNotFound, "invoice", id)
}

// List returns all invoices to admins and a user's own invoices to that user.
func (e *InvoiceEngine) List(ctx context.Context, actor domain.Actor, f domain.InvoiceFilter) ([]*domain.Invoice, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		f.UserID = actor.UserID
	default:
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "invoices are visible to admins and customers only")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.ErrValidation("unknown invoice status %q", f.Status)
	}
	invs, err := e.store.ListInvoices(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invs, nil
}
