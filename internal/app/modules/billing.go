package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/jobs"
	"pitlane.io/pitlane/internal/notification"
	"pitlane.io/pitlane/internal/usecase"
)

// BillingModule wires the invoice engine to the mail transport and owns the
// overdue sweep.
type BillingModule struct {
	invoices     *usecase.InvoiceEngine
	paymentTerms time.Duration
}

// NewBillingModule creates the billing module.
func NewBillingModule(infra *Infrastructure) (*BillingModule, error) {
	if infra == nil || infra.Store == nil || infra.Mailer == nil {
		return nil, fmt.Errorf("billing module requires store and mailer")
	}
	renderer := notification.NewInvoiceRenderer(infra.Config.Billing)
	return &BillingModule{
		invoices:     usecase.NewInvoiceEngine(infra.Store, infra.Mailer, renderer, infra.AuditLogger),
		paymentTerms: infra.Config.Billing.PaymentTerms,
	}, nil
}

func (m *BillingModule) Name() string { return "billing" }

func (m *BillingModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Invoices = m.invoices
}

func (m *BillingModule) RegisterWorkers(workers *river.Workers) {
	if workers == nil {
		return
	}
	river.AddWorker(workers, jobs.NewOverdueInvoicesWorker(m.invoices, m.paymentTerms))
}

func (m *BillingModule) Shutdown(context.Context) error { return nil }
