package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riverqueue/river"
)

type fakeMarker struct {
	terms time.Duration
	n     int
	err   error
}

func (f *fakeMarker) MarkOverdue(_ context.Context, terms time.Duration) (int, error) {
	f.terms = terms
	return f.n, f.err
}

func TestOverdueInvoicesArgsKind(t *testing.T) {
	t.Parallel()

	if got := (OverdueInvoicesArgs{}).Kind(); got != "invoice_overdue_sweep" {
		t.Fatalf("Kind() = %q, want %q", got, "invoice_overdue_sweep")
	}
}

func TestOverdueInvoicesArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (OverdueInvoicesArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.UniqueOpts.ByPeriod != time.Hour {
		t.Fatalf("UniqueOpts.ByPeriod = %s, want %s", opts.UniqueOpts.ByPeriod, time.Hour)
	}
	if !opts.UniqueOpts.ByQueue || !opts.UniqueOpts.ByArgs {
		t.Fatal("UniqueOpts must be scoped by queue and args")
	}
}

func TestNewOverdueInvoicesWorkerTerms(t *testing.T) {
	t.Parallel()

	t.Run("defaults when non-positive", func(t *testing.T) {
		w := NewOverdueInvoicesWorker(nil, 0)
		if w.terms != DefaultPaymentTerms {
			t.Fatalf("terms = %s, want %s", w.terms, DefaultPaymentTerms)
		}
	})

	t.Run("uses explicit terms", func(t *testing.T) {
		want := 14 * 24 * time.Hour
		w := NewOverdueInvoicesWorker(nil, want)
		if w.terms != want {
			t.Fatalf("terms = %s, want %s", w.terms, want)
		}
	})
}

func TestOverdueInvoicesWorkerWork(t *testing.T) {
	t.Parallel()

	t.Run("nil receiver", func(t *testing.T) {
		var w *OverdueInvoicesWorker
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})

	t.Run("passes terms through", func(t *testing.T) {
		m := &fakeMarker{n: 2}
		w := NewOverdueInvoicesWorker(m, 7*24*time.Hour)
		if err := w.Work(context.Background(), nil); err != nil {
			t.Fatalf("Work() error = %v", err)
		}
		if m.terms != 7*24*time.Hour {
			t.Fatalf("terms = %s, want 168h", m.terms)
		}
	})

	t.Run("wraps engine failure", func(t *testing.T) {
		m := &fakeMarker{err: errors.New("db down")}
		w := NewOverdueInvoicesWorker(m, time.Hour)
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "db down") {
			t.Fatalf("Work() error = %v, want contains %q", err, "db down")
		}
	})
}

func TestPeriodicOverdueInvoices(t *testing.T) {
	t.Parallel()

	if PeriodicOverdueInvoices(0) == nil {
		t.Fatal("PeriodicOverdueInvoices(0) = nil")
	}
	if PeriodicOverdueInvoices(15*time.Minute) == nil {
		t.Fatal("PeriodicOverdueInvoices(15m) = nil")
	}
}
