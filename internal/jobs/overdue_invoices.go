// Package jobs defines River job types for periodic maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/pkg/logger"
)

// DefaultPaymentTerms is how long a Sent invoice may stay unpaid.
const DefaultPaymentTerms = 30 * 24 * time.Hour

// OverdueMarker is the part of the invoice engine the sweep needs.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, terms time.Duration) (int, error)
}

// OverdueInvoicesArgs is a periodic job that moves unpaid Sent invoices
// past their payment terms to Overdue.
type OverdueInvoicesArgs struct{}

// Kind returns the job kind identifier.
func (OverdueInvoicesArgs) Kind() string { return "invoice_overdue_sweep" }

// InsertOpts keeps at most one sweep enqueued per hour.
func (OverdueInvoicesArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 3,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// OverdueInvoicesWorker runs the sweep.
type OverdueInvoicesWorker struct {
	river.WorkerDefaults[OverdueInvoicesArgs]
	invoices OverdueMarker
	terms    time.Duration
}

// NewOverdueInvoicesWorker creates a sweep worker. Non-positive terms fall
// back to DefaultPaymentTerms.
func NewOverdueInvoicesWorker(invoices OverdueMarker, terms time.Duration) *OverdueInvoicesWorker {
	if terms <= 0 {
		terms = DefaultPaymentTerms
	}
	return &OverdueInvoicesWorker{
		invoices: invoices,
		terms:    terms,
	}
}

// Work marks the overdue invoices.
func (w *OverdueInvoicesWorker) Work(ctx context.Context, _ *river.Job[OverdueInvoicesArgs]) error {
	if w == nil || w.invoices == nil {
		return fmt.Errorf("overdue invoices worker is not initialized")
	}

	marked, err := w.invoices.MarkOverdue(ctx, w.terms)
	if err != nil {
		return fmt.Errorf("overdue sweep: %w", err)
	}

	logger.Info("overdue invoice sweep completed",
		zap.Int("marked", marked),
		zap.Duration("terms", w.terms),
	)
	return nil
}

// PeriodicOverdueInvoices schedules the sweep every interval and once on start.
func PeriodicOverdueInvoices(interval time.Duration) *river.PeriodicJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return OverdueInvoicesArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
