package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	"pitlane.io/pitlane/internal/governance/consistency"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// CreateRequestInput carries a mechanic's spare-part request.
// TotalPrice is optional and only cross-checked.
type CreateRequestInput struct {
	SparePartID string
	VehicleID   string
	ServiceID   string
	MechanicID  string
	Quantity    int
	TotalPrice  *decimal.Decimal
}

// RequestUseCase creates and reads spare-part requests.
type RequestUseCase struct {
	store       repository.Store
	auditLogger *audit.Logger
	now         func() time.Time
}

// NewRequestUseCase creates a new RequestUseCase.
func NewRequestUseCase(store repository.Store, auditLogger *audit.Logger) *RequestUseCase {
	return &RequestUseCase{store: store, auditLogger: auditLogger, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates and persists a Pending request with a frozen total.
// The stock check here is advisory; approval re-checks under a row lock.
func (u *RequestUseCase) Create(ctx context.Context, actor domain.Actor, in CreateRequestInput) (*domain.SparePartRequest, error) {
	if !actor.IsMechanic() {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only mechanics can request spare parts")
	}
	if in.MechanicID != "" && in.MechanicID != actor.UserID {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "mechanics can only request parts for themselves")
	}
	if err := consistency.ValidateQuantity(in.Quantity); err != nil {
		return nil, err
	}

	svc, err := u.store.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", in.ServiceID)
	}
	if in.VehicleID != "" {
		if _, err := u.store.GetVehicle(ctx, in.VehicleID); err != nil {
			return nil, lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", in.VehicleID)
		}
		if in.VehicleID != svc.VehicleID {
			return nil, apperrors.ErrValidation("vehicleId does not belong to service %s", svc.ID).
				WithField("vehicleId", "mismatch", "must be the service's vehicle")
		}
	}
	if !svc.AssignedTo(actor.UserID) {
		return nil, apperrors.Forbidden(apperrors.CodeNotAssignedMechanic, "service is not assigned to the caller").
			WithParams(map[string]interface{}{"service_id": svc.ID})
	}
	if err := consistency.CheckAcceptsParts(svc); err != nil {
		return nil, err
	}

	part, err := u.store.GetSparePart(ctx, in.SparePartID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeSparePartNotFound, "spare part", in.SparePartID)
	}
	if err := consistency.CheckStockAvailable(part, in.Quantity); err != nil {
		return nil, err
	}
	total, err := consistency.FreezeRequestTotal(part, in.Quantity, in.TotalPrice)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate request id: %w", err)
	}
	now := u.now()
	req := &domain.SparePartRequest{
		ID:            id.String(),
		SparePartID:   part.ID,
		VehicleID:     svc.VehicleID,
		MechanicID:    actor.UserID,
		ServiceID:     svc.ID,
		Quantity:      in.Quantity,
		UnitPrice:     part.Price,
		TotalPrice:    total,
		Status:        domain.RequestStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		SparePartName: part.Name,
	}
	if err := u.store.CreateSparePartRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create spare part request: %w", err)
	}

	if u.auditLogger != nil {
		_ = u.auditLogger.LogAction(ctx, domain.ActionRequestCreated, domain.ResourceSparePartRequest, req.ID, actor.UserID,
			map[string]interface{}{
				"service_id":    req.ServiceID,
				"spare_part_id": req.SparePartID,
				"quantity":      req.Quantity,
				"total_price":   domain.FormatMoney(req.TotalPrice),
			})
	}

	logger.Info("Spare part request created",
		zap.String("request_id", req.ID),
		zap.String("service_id", req.ServiceID),
		zap.String("spare_part_id", req.SparePartID),
		zap.Int("quantity", req.Quantity),
		zap.String("total_price", domain.FormatMoney(req.TotalPrice)),
		zap.String("actor", actor.UserID),
	)
	return req, nil
}

// List returns requests visible to actor: a mechanic sees their own, an admin all.
func (u *RequestUseCase) List(ctx context.Context, actor domain.Actor, f domain.RequestFilter) ([]*domain.SparePartRequest, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleMechanic:
		f.MechanicID = actor.UserID
	default:
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "spare part requests are visible to mechanics and admins only")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.ErrValidation("unknown request status %q", f.Status)
	}
	reqs, err := u.store.ListSparePartRequests(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list spare part requests: %w", err)
	}
	return reqs, nil
}

// Get returns one request to its mechanic or an admin.
func (u *RequestUseCase) Get(ctx context.Context, actor domain.Actor, id string) (*domain.SparePartRequest, error) {
	req, err := u.store.GetSparePartRequest(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeSparePartRequestNotFound, "spare part request", id)
	}
	if actor.IsAdmin() || (actor.IsMechanic() && req.MechanicID == actor.UserID) {
		return req, nil
	}
	// Hide existence from callers who may not see it.
	return nil, apperrors.ErrNotFoundf(apperrors.CodeSparePartRequestNotFound, "spare part request", id)
}
