package service

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
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// SparePartInput is the admin-editable part of a catalogue entry.
type SparePartInput struct {
	Name          string
	Price         decimal.Decimal
	Quantity      int
	CriticalLevel bool
}

// SparePartService manages the spare-part catalogue.
// Stock only goes down through request approval.
type SparePartService struct {
	store       repository.Store
	auditLogger *audit.Logger
	now         func() time.Time
}

// NewSparePartService creates a new SparePartService.
func NewSparePartService(store repository.Store, auditLogger *audit.Logger) *SparePartService {
	return &SparePartService{store: store, auditLogger: auditLogger, now: func() time.Time { return time.Now().UTC() }}
}

func validatePart(in *SparePartInput) error {
	in.Name = strings.TrimSpace(in.Name)
	var fieldErrs []apperrors.FieldError
	if in.Name == "" {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "name", Code: "required", Message: "is required"})
	}
	if in.Quantity < 0 {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "quantity", Code: "min", Message: "must not be negative"})
	}
	if in.Quantity > domain.MaxQuantity {
		fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "quantity", Code: "max", Message: fmt.Sprintf("must not exceed %d", domain.MaxQuantity)})
	}
	if len(fieldErrs) > 0 {
		return apperrors.ErrValidation("invalid spare part").WithFieldErrors(fieldErrs)
	}
	return consistency.ValidateMoney("price", in.Price)
}

// Create adds a catalogue entry.
func (s *SparePartService) Create(ctx context.Context, actor domain.Actor, in SparePartInput) (*domain.SparePart, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only admins can manage spare parts")
	}
	if err := validatePart(&in); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate spare part id: %w", err)
	}
	now := s.now()
	p := &domain.SparePart{
		ID:            id.String(),
		Name:          in.Name,
		Price:         in.Price,
		Quantity:      in.Quantity,
		CriticalLevel: in.CriticalLevel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateSparePart(ctx, p); err != nil {
		return nil, fmt.Errorf("create spare part: %w", err)
	}

	s.audit(ctx, domain.ActionSparePartCreated, p, actor)
	return p, nil
}

// Update replaces the editable fields of a catalogue entry.
func (s *SparePartService) Update(ctx context.Context, actor domain.Actor, id string, in SparePartInput) (*domain.SparePart, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only admins can manage spare parts")
	}
	if err := validatePart(&in); err != nil {
		return nil, err
	}

	p, err := s.store.GetSparePart(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeSparePartNotFound, "spare part", id)
	}
	p.Name = in.Name
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.CriticalLevel = in.CriticalLevel
	if err := s.store.UpdateSparePart(ctx, p); err != nil {
		return nil, lookupErr(err, apperrors.CodeSparePartNotFound, "spare part", id)
	}

	s.audit(ctx, domain.ActionSparePartUpdated, p, actor)
	return p, nil
}

// Delete removes an entry no request refers to.
func (s *SparePartService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden(apperrors.CodeForbidden, "only admins can manage spare parts")
	}
	p, err := s.store.GetSparePart(ctx, id)
	if err != nil {
		return lookupErr(err, apperrors.CodeSparePartNotFound, "spare part", id)
	}
	if err := s.store.DeleteSparePart(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.Conflict(apperrors.CodeSparePartInUse, "spare part is referenced by requests").
				WithParams(map[string]interface{}{"id": id})
		}
		return lookupErr(err, apperrors.CodeSparePartNotFound, "spare part", id)
	}

	s.audit(ctx, domain.ActionSparePartDeleted, p, actor)
	return nil
}

// Get returns one catalogue entry.
func (s *SparePartService) Get(ctx context.Context, id string) (*domain.SparePart, error) {
	p, err := s.store.GetSparePart(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeSparePartNotFound, "spare part", id)
	}
	return p, nil
}

// List returns the catalogue ordered by name.
func (s *SparePartService) List(ctx context.Context) ([]*domain.SparePart, error) {
	ps, err := s.store.ListSpareParts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list spare parts: %w", err)
	}
	return ps, nil
}

func (s *SparePartService) audit(ctx context.Context, action domain.AuditAction, p *domain.SparePart, actor domain.Actor) {
	if s.auditLogger != nil {
		_ = s.auditLogger.LogAction(ctx, action, domain.ResourceSparePart, p.ID, actor.UserID, map[string]interface{}{
			"name":     p.Name,
			"price":    domain.FormatMoney(p.Price),
			"quantity": p.Quantity,
		})
	}
	logger.Info("Spare part catalogue changed",
		zap.String("action", string(action)),
		zap.String("spare_part_id", p.ID),
		zap.Int("quantity", p.Quantity),
		zap.String("actor", actor.UserID),
	)
}
