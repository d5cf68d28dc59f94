package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	"pitlane.io/pitlane/internal/governance/consistency"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// CreateServiceInput is a customer's repair request.
type CreateServiceInput struct {
	VehicleID     string
	Description   string
	ScheduledDate time.Time
}

// ServiceWorkflow drives the Pending -> In Progress -> Completed|Cancelled
// lifecycle of a repair job.
//
// Admin writes are not restricted by a transition table. Mechanics can only
// complete work assigned to them.
type ServiceWorkflow struct {
	store       repository.Store
	auditLogger *audit.Logger
	now         func() time.Time
}

// NewServiceWorkflow creates a new ServiceWorkflow.
func NewServiceWorkflow(store repository.Store, auditLogger *audit.Logger) *ServiceWorkflow {
	return &ServiceWorkflow{store: store, auditLogger: auditLogger, now: func() time.Time { return time.Now().UTC() }}
}

// Create opens a Pending, unassigned service on one of the caller's vehicles.
func (w *ServiceWorkflow) Create(ctx context.Context, actor domain.Actor, in CreateServiceInput) (*domain.Service, error) {
	if actor.Role != domain.RoleUser {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only customers can request services")
	}
	in.Description = strings.TrimSpace(in.Description)
	var fieldErrs []apperrors.FieldError
	if in.Description == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "description", Code: "required", Message: "is required"})
	}
	if in.ScheduledDate.IsZero() {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "scheduledDate", Code: "required", Message: "is required"})
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.ErrValidation("invalid service").WithFieldErrors(fieldErrs)
	}

	vehicle, err := w.store.GetVehicle(ctx, in.VehicleID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", in.VehicleID)
	}
	if vehicle.OwnerID != actor.UserID {
		return nil, apperrors.Forbidden(apperrors.CodeNotVehicleOwner, "vehicle belongs to another customer")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate service id: %w", err)
	}
	now := w.now()
	svc := &domain.Service{
		ID:            id.String(),
		VehicleID:     vehicle.ID,
		Description:   in.Description,
		ScheduledDate: in.ScheduledDate.UTC(),
		Status:        domain.ServiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := w.store.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	logger.Info("Service requested",
		zap.String("service_id", svc.ID),
		zap.String("vehicle_id", svc.VehicleID),
		zap.String("actor", actor.UserID),
	)
	return svc, nil
}

// Assign sets the mechanic (nil unassigns) and the status. Any status is accepted.
func (w *ServiceWorkflow) Assign(ctx context.Context, actor domain.Actor, id string, mechanicID *string, status domain.ServiceStatus) (*domain.Service, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only admins can assign services")
	}
	if !status.Valid() {
		return nil, apperrors.ErrValidation("unknown service status %q", status).
			WithField("status", "oneof", "must be Pending, In Progress, Completed or Cancelled")
	}
	if mechanicID != nil {
		mechanic, err := w.store.GetUser(ctx, *mechanicID)
		if err != nil {
			return nil, lookupErr(err, apperrors.CodeUserNotFound, "user", *mechanicID)
		}
		if mechanic.Role != domain.RoleMechanic {
			return nil, apperrors.ErrValidation("user %s is not a mechanic", mechanic.ID).
				WithField("mechanicId", "role", "must reference a mechanic")
		}
	}

	before, err := w.store.GetService(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", id)
	}
	svc, err := w.store.AssignService(ctx, id, mechanicID, status)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", id)
	}

	details := map[string]interface{}{
		"from": string(before.Status),
		"to":   string(status),
	}
	if mechanicID != nil {
		details["mechanic_id"] = *mechanicID
	}
	if w.auditLogger != nil {
		_ = w.auditLogger.LogAction(ctx, domain.ActionServiceAssigned, domain.ResourceService, id, actor.UserID, details)
	}
	logger.Transition("service_id", id, string(before.Status), string(status), actor.UserID,
		zap.Stringp("mechanic_id", mechanicID),
	)
	return svc, nil
}

// Complete is the mechanic's only write: status -> Completed.
func (w *ServiceWorkflow) Complete(ctx context.Context, actor domain.Actor, id string, target domain.ServiceStatus) (*domain.Service, error) {
	if !actor.IsMechanic() {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only mechanics can complete services")
	}
	if target != domain.ServiceStatusCompleted {
		return nil, apperrors.Forbidden(apperrors.CodeMechanicCompleteOnly, "mechanics may only complete, not reassign").
			WithParams(map[string]interface{}{"requested": string(target)})
	}

	svc, err := w.store.GetService(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", id)
	}
	if !svc.AssignedTo(actor.UserID) {
		return nil, apperrors.Forbidden(apperrors.CodeNotAssignedMechanic, "service is not assigned to the caller")
	}

	for attempt := 0; attempt < 3; attempt++ {
		switch svc.Status {
		case domain.ServiceStatusCompleted:
			return svc, nil
		case domain.ServiceStatusCancelled:
			return nil, apperrors.Conflict(apperrors.CodeServiceCancelled, "service is cancelled").
				WithParams(map[string]interface{}{"id": id})
		}

		from := svc.Status
		ok, err := w.store.CompareAndSetServiceStatus(ctx, id, from, domain.ServiceStatusCompleted)
		if err != nil {
			return nil, fmt.Errorf("complete service %s: %w", id, err)
		}
		if svc, err = w.store.GetService(ctx, id); err != nil {
			return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", id)
		}
		if ok {
			if w.auditLogger != nil {
				_ = w.auditLogger.LogAction(ctx, domain.ActionServiceCompleted, domain.ResourceService, id, actor.UserID,
					map[string]interface{}{"from": string(from)})
			}
			logger.Transition("service_id", id, string(from), string(domain.ServiceStatusCompleted), actor.UserID)
			return svc, nil
		}
		// Status moved underneath us; re-evaluate against the fresh row.
		if !svc.AssignedTo(actor.UserID) {
			return nil, apperrors.Forbidden(apperrors.CodeNotAssignedMechanic, "service is not assigned to the caller")
		}
	}
	return nil, apperrors.Conflict(apperrors.CodeServiceNotCompleted, "service changed concurrently, retry").
		WithParams(map[string]interface{}{"id": id})
}

// Rate stores the owner's 1-5 rating of a Completed service. First rating wins.
func (w *ServiceWorkflow) Rate(ctx context.Context, actor domain.Actor, id string, rating int) (*domain.Service, error) {
	if actor.Role != domain.RoleUser {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only customers can rate services")
	}
	if err := consistency.ValidateRating(rating); err != nil {
		return nil, err
	}

	svc, err := w.store.GetService(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", id)
	}
	vehicle, err := w.store.GetVehicle(ctx, svc.VehicleID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", svc.VehicleID)
	}
	if vehicle.OwnerID != actor.UserID {
		return nil, apperrors.Forbidden(apperrors.CodeNotVehicleOwner, "only the vehicle owner can rate a service")
	}

	ok, err := w.store.SetServiceRating(ctx, id, rating)
	if err != nil {
		return nil, fmt.Errorf("rate service %s: %w", id, err)
	}
	if svc, err = w.store.GetService(ctx, id); err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", id)
	}
	if !ok {
		if svc.Status != domain.ServiceStatusCompleted {
			return nil, apperrors.Conflict(apperrors.CodeServiceNotCompleted, "only completed services can be rated").
				WithParams(map[string]interface{}{"id": id, "status": string(svc.Status)})
		}
		return nil, apperrors.Conflict(apperrors.CodeRatingAlreadySet, "service has already been rated").
			WithParams(map[string]interface{}{"id": id})
	}

	if w.auditLogger != nil {
		_ = w.auditLogger.LogAction(ctx, domain.ActionServiceRated, domain.ResourceService, id, actor.UserID,
			map[string]interface{}{"rating": rating})
	}
	logger.Info("Service rated", zap.String("service_id", id), zap.Int("rating", rating), zap.String("actor", actor.UserID))
	return svc, nil
}

// List returns the services visible to actor: customers see their vehicles'
// services, mechanics their assignments, admins everything.
func (w *ServiceWorkflow) List(ctx context.Context, actor domain.Actor, f domain.ServiceFilter) ([]*domain.Service, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleMechanic:
		f.MechanicID = actor.UserID
	case domain.RoleUser:
		f.OwnerID = actor.UserID
	default:
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "unknown role")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperrors.ErrValidation("unknown service status %q", f.Status)
	}
	out, err := w.store.ListServices(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

// Get returns a service to its vehicle owner, its mechanic or an admin.
func (w *ServiceWorkflow) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Service, error) {
	svc, err := w.store.GetService(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeServiceNotFound, "service", id)
	}
	switch {
	case actor.IsAdmin():
		return svc, nil
	case actor.IsMechanic() && svc.AssignedTo(actor.UserID):
		return svc, nil
	case actor.Role == domain.RoleUser:
		vehicle, err := w.store.GetVehicle(ctx, svc.VehicleID)
		if err != nil {
			return nil, lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", svc.VehicleID)
		}
		if vehicle.OwnerID == actor.UserID {
			return svc, nil
		}
	}
	return nil, apperrors.ErrNotFoundf(apperrors.CodeServiceNotFound, "service", id)
}
