// Package worker provides goroutine pool management.
//
// Outbound calls to slow collaborators (the mail transport) go through a
// bounded ants pool instead of naked goroutines, so a burst of invoice
// e-mails cannot exhaust SMTP connections.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Job is a task whose result the submitter waits for.
type Job func(ctx context.Context) error

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
}

// Pools is the worker pool collection.
type Pools struct {
	Mail *Pool
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	MailPoolSize int
}

// DefaultPoolConfig returns default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MailPoolSize: 4}
}

// NewPool creates a single named pool of size workers. size must be
// positive; ants would treat zero or less as unbounded.
func NewPool(name string, size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("create %s pool: size must be positive, got %d", name, size)
	}
	panicHandler := func(p interface{}) {
		logger.Error("Worker panic recovered",
			zap.String("pool", name),
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	ap, err := ants.NewPool(size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s pool: %w", name, err)
	}
	return &Pool{pool: ap, name: name}, nil
}

// NewPools creates the worker pool collection.
func NewPools(cfg PoolConfig) (*Pools, error) {
	mail, err := NewPool("mail", cfg.MailPoolSize)
	if err != nil {
		return nil, err
	}
	return &Pools{Mail: mail}, nil
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Submit submits a context-aware task.
// If ctx is already cancelled, returns ctx.Err() without submitting.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := p.pool.Submit(func() {
		// may have been cancelled while queued
		select {
		case <-ctx.Done():
			logger.Debug("Task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Do runs job on the pool and waits for its result.
// Returns ctx.Err() if ctx ends first; the job itself still sees ctx.
func (p *Pool) Do(ctx context.Context, job Job) error {
	done := make(chan error, 1)

	err := p.Submit(ctx, func(ctx context.Context) {
		done <- runJob(ctx, job)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx)
}

// Release shuts the pool down, waiting up to timeout for running tasks.
func (p *Pool) Release(timeout time.Duration) error {
	return p.pool.ReleaseTimeout(timeout)
}

// Shutdown gracefully shuts down all pools.
func (p *Pools) Shutdown() {
	const shutdownTimeout = 30 * time.Second
	if err := p.Mail.Release(shutdownTimeout); err != nil {
		logger.Warn("Mail pool shutdown timeout", zap.Error(err))
	}
}

// Metrics returns pool metrics for the readiness probe.
func (p *Pools) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"mail": map[string]int{
			"running": p.Mail.pool.Running(),
			"free":    p.Mail.pool.Free(),
			"cap":     p.Mail.pool.Cap(),
		},
	}
}
