// Package service provides the single-record business services: vehicles,
// the spare-part catalogue, users and the service (repair job) workflow.
//
// Services own authorization and validation for their records. Writes that
// span records live in the usecase package.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// earliestModelYear bounds vehicle years from below.
const earliestModelYear = 1886

// VehicleInput is the customer-supplied part of a vehicle.
type VehicleInput struct {
	Make  string
	Model string
	Year  int
	Plate string
}

// VehicleService handles vehicle business logic.
type VehicleService struct {
	store       repository.Store
	auditLogger *audit.Logger
	now         func() time.Time
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(store repository.Store, auditLogger *audit.Logger) *VehicleService {
	return &VehicleService{store: store, auditLogger: auditLogger, now: func() time.Time { return time.Now().UTC() }}
}

// Create registers a vehicle owned by the caller.
func (s *VehicleService) Create(ctx context.Context, actor domain.Actor, in VehicleInput) (*domain.Vehicle, error) {
	if actor.Role != domain.RoleUser {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only customers can register vehicles")
	}

	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.Plate = NormalizePlate(in.Plate)

	var fieldErrs []apperrors.FieldError
	if in.Make == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "make", Code: "required", Message: "is required"})
	}
	if in.Model == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "model", Code: "required", Message: "is required"})
	}
	if in.Plate == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "plate", Code: "required", Message: "is required"})
	}
	if maxYear := s.now().Year() + 1; in.Year < earliestModelYear || in.Year > maxYear {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "year", Code: "range",
			Message: fmt.Sprintf("must be between %d and %d", earliestModelYear, maxYear)})
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.ErrValidation("invalid vehicle").WithFieldErrors(fieldErrs)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate vehicle id: %w", err)
	}
	now := s.now()
	v := &domain.Vehicle{
		ID:        id.String(),
		OwnerID:   actor.UserID,
		Make:      in.Make,
		Model:     in.Model,
		Year:      in.Year,
		Plate:     in.Plate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateVehicle(ctx, v); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, apperrors.Conflict(apperrors.CodePlateExists, "a vehicle with this plate already exists").
				WithParams(map[string]interface{}{"plate": v.Plate})
		}
		return nil, fmt.Errorf("create vehicle: %w", err)
	}

	logger.Info("Vehicle registered",
		zap.String("vehicle_id", v.ID),
		zap.String("plate", v.Plate),
		zap.String("actor", actor.UserID),
	)
	return v, nil
}

// List returns the caller's vehicles, or every vehicle for an admin.
func (s *VehicleService) List(ctx context.Context, actor domain.Actor) ([]*domain.Vehicle, error) {
	var ownerID string
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		ownerID = actor.UserID
	default:
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "vehicles are visible to customers and admins only")
	}
	vs, err := s.store.ListVehicles(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vs, nil
}

// Get returns a vehicle to its owner or an admin.
func (s *VehicleService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Vehicle, error) {
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", id)
	}
	if actor.IsAdmin() || v.OwnerID == actor.UserID {
		return v, nil
	}
	return nil, apperrors.ErrNotFoundf(apperrors.CodeVehicleNotFound, "vehicle", id)
}

// Delete removes a vehicle with its services. Vehicles that were billed
// with an invoice past Draft are kept for the books.
func (s *VehicleService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		v, err := tx.GetVehicle(ctx, id)
		if err != nil {
			return lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", id)
		}
		if v.OwnerID != actor.UserID {
			return apperrors.Forbidden(apperrors.CodeNotVehicleOwner, "only the owner can delete a vehicle")
		}

		issued, err := tx.CountIssuedInvoices(ctx, id)
		if err != nil {
			return fmt.Errorf("count invoices of vehicle %s: %w", id, err)
		}
		if issued > 0 {
			return apperrors.Conflict(apperrors.CodeVehicleHasInvoices, "vehicle has issued invoices").
				WithParams(map[string]interface{}{"id": id, "invoices": issued})
		}

		if err := tx.DeleteVehicle(ctx, id); err != nil {
			return lookupErr(err, apperrors.CodeVehicleNotFound, "vehicle", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.auditLogger != nil {
		_ = s.auditLogger.LogAction(ctx, domain.ActionVehicleDeleted, domain.ResourceVehicle, id, actor.UserID, nil)
	}
	logger.Info("Vehicle deleted", zap.String("vehicle_id", id), zap.String("actor", actor.UserID))
	return nil
}

// NormalizePlate trims and upper-cases a licence plate.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// lookupErr maps a repository miss to a 404 and wraps anything else.
func lookupErr(err error, code, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrNotFoundf(code, resource, id)
	}
	return fmt.Errorf("load %s %s: %w", resource, id, err)
}
