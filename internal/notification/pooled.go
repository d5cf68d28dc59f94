package notification

import (
	"context"

	"pitlane.io/pitlane/internal/pkg/worker"
)

// PooledMailer runs each dispatch on a bounded worker pool and waits for it.
// Cancelling ctx releases the caller at once, but a transport that does not
// watch ctx may still deliver the message afterwards.
type PooledMailer struct {
	next Mailer
	pool *worker.Pool
}

// NewPooledMailer wraps next.
func NewPooledMailer(next Mailer, pool *worker.Pool) *PooledMailer {
	return &PooledMailer{next: next, pool: pool}
}

// SendMail submits the dispatch and returns its result.
func (m *PooledMailer) SendMail(ctx context.Context, to, subject, html string) error {
	return m.pool.Do(ctx, func(jobCtx context.Context) error {
		return m.next.SendMail(jobCtx, to, subject, html)
	})
}
