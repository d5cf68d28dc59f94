// Package approval implements the spare-part request decision gateway.
//
// A request moves Pending -> Approved or Pending -> Rejected exactly once.
// Approval consumes stock; both happen in one atomic write owned by the
// usecase layer.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// AtomicDecisionWriter defines the transactional writes behind a decision.
type AtomicDecisionWriter interface {
	ApproveAndDecrement(ctx context.Context, requestID, approver string) (*domain.SparePartRequest, error)
	Reject(ctx context.Context, requestID, approver string) (*domain.SparePartRequest, error)
}

// Gateway orchestrates approval decisions.
type Gateway struct {
	requests     repository.RequestRepo
	auditLogger  *audit.Logger
	atomicWriter AtomicDecisionWriter
}

// NewGateway creates a new approval Gateway.
func NewGateway(requests repository.RequestRepo, auditLogger *audit.Logger, atomicWriter AtomicDecisionWriter) *Gateway {
	return &Gateway{
		requests:     requests,
		auditLogger:  auditLogger,
		atomicWriter: atomicWriter,
	}
}

// Decide records an admin decision on a pending request.
func (g *Gateway) Decide(ctx context.Context, actor domain.Actor, requestID string, decision domain.RequestStatus) (*domain.SparePartRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden, "only admins can decide spare part requests")
	}
	if !decision.Decided() {
		return nil, apperrors.ErrValidation("status must be %q or %q, got %q",
			domain.RequestStatusApproved, domain.RequestStatusRejected, decision).
			WithField("status", "oneof", "must be Approved or Rejected")
	}
	if g.atomicWriter == nil {
		return nil, fmt.Errorf("atomic decision writer is not configured")
	}

	current, err := g.requests.GetSparePartRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrNotFoundf(apperrors.CodeSparePartRequestNotFound, "spare part request", requestID)
		}
		return nil, fmt.Errorf("get request %s: %w", requestID, err)
	}
	// Fast path. The conditional write below is what actually guarantees a single decision.
	if current.Status.Decided() {
		return nil, apperrors.Conflict(apperrors.CodeRequestAlreadyDecided, "spare part request has already been decided").
			WithParams(map[string]interface{}{"id": requestID, "status": string(current.Status)})
	}

	var decided *domain.SparePartRequest
	if decision == domain.RequestStatusApproved {
		decided, err = g.atomicWriter.ApproveAndDecrement(ctx, requestID, actor.UserID)
	} else {
		decided, err = g.atomicWriter.Reject(ctx, requestID, actor.UserID)
	}
	if err != nil {
		return nil, err
	}

	// Audit log (best-effort, outside transaction).
	if g.auditLogger != nil {
		_ = g.auditLogger.LogDecision(ctx, requestID, decision, actor.UserID, map[string]interface{}{
			"spare_part_id": decided.SparePartID,
			"service_id":    decided.ServiceID,
			"quantity":      decided.Quantity,
			"total_price":   domain.FormatMoney(decided.TotalPrice),
		})
	}

	logger.Transition("request_id", requestID, string(current.Status), string(decision), actor.UserID,
		zap.String("spare_part_id", decided.SparePartID),
		zap.Int("quantity", decided.Quantity),
	)
	return decided, nil
}

// ListPending returns pending requests, oldest first.
func (g *Gateway) ListPending(ctx context.Context) ([]*domain.SparePartRequest, error) {
	reqs, err := g.requests.ListSparePartRequests(ctx, domain.RequestFilter{Status: domain.RequestStatusPending})
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	out := make([]*domain.SparePartRequest, len(reqs))
	for i := range reqs {
		out[len(reqs)-1-i] = reqs[i]
	}
	return out, nil
}

// PriorityTier buckets a pending request by how long it has waited.
func PriorityTier(createdAt time.Time) string {
	days := int(time.Since(createdAt).Hours() / 24)
	switch {
	case days >= 7:
		return "urgent"
	case days >= 3:
		return "warning"
	default:
		return "normal"
	}
}
