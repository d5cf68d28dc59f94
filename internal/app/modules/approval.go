package modules

import (
	"context"
	"errors"

	"github.com/riverqueue/river"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/governance/approval"
	"pitlane.io/pitlane/internal/usecase"
)

// ApprovalModule exposes the admin decision gateway for spare-part
// requests. Approvals deduct stock in the same transaction as the decision.
type ApprovalModule struct {
	gateway *approval.Gateway
}

func NewApprovalModule(infra *Infrastructure) (*ApprovalModule, error) {
	switch {
	case infra == nil || infra.Store == nil:
		return nil, errors.New("approval module: store is required")
	case infra.AuditLogger == nil:
		return nil, errors.New("approval module: audit logger is required")
	}
	stock := usecase.NewStockAtomicWriter(infra.Store)
	return &ApprovalModule{
		gateway: approval.NewGateway(infra.Store, infra.AuditLogger, stock),
	}, nil
}

func (m *ApprovalModule) Name() string { return "approval" }

func (m *ApprovalModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps != nil {
		deps.Gateway = m.gateway
	}
}

// RegisterWorkers is a no-op; decisions are synchronous.
func (m *ApprovalModule) RegisterWorkers(*river.Workers) {}

func (m *ApprovalModule) Shutdown(context.Context) error { return nil }
