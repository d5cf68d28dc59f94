// Package audit implements the audit logging service.
//
// Audit logs are append-only records of admin decisions. Writes are
// best-effort: they run after the business transaction has committed and a
// failed write never undoes the decision it describes.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
)

// Logger writes audit records through the audit repository.
type Logger struct {
	repo repository.AuditRepo
	now  func() time.Time
}

// NewLogger creates a new audit Logger.
func NewLogger(repo repository.AuditRepo) *Logger {
	return &Logger{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// LogAction records an auditable action.
func (l *Logger) LogAction(ctx context.Context, action domain.AuditAction, resourceType, resourceID, actor string, details map[string]interface{}) error {
	entry := &domain.AuditEntry{
		ID:           generateAuditID(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Actor:        actor,
		CreatedAt:    l.now(),
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		entry.Details = raw
	}

	if err := l.repo.InsertAuditLog(ctx, entry); err != nil {
		logger.Error("Failed to write audit log",
			zap.String("action", string(action)),
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// LogDecision records a spare-part request decision.
func (l *Logger) LogDecision(ctx context.Context, requestID string, status domain.RequestStatus, actor string, details map[string]interface{}) error {
	action := domain.ActionRequestRejected
	if status == domain.RequestStatusApproved {
		action = domain.ActionRequestApproved
	}
	return l.LogAction(ctx, action, domain.ResourceSparePartRequest, requestID, actor, details)
}

// LogInvoice records an invoice operation.
func (l *Logger) LogInvoice(ctx context.Context, action domain.AuditAction, invoiceID, actor string, details map[string]interface{}) error {
	return l.LogAction(ctx, action, domain.ResourceInvoice, invoiceID, actor, details)
}

func generateAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return fmt.Sprintf("audit-%s", id.String())
}
