package queue

import (
	"context"
	"time"
)

// Retrier moves failed jobs back to pending once their backoff elapsed.
// Without it failed is terminal.
type Retrier struct {
	repo        Repository
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// NewRetrier returns a sweep that requeues jobs with fewer than maxAttempts
// attempts whose last claim is older than backoff.
func NewRetrier(repo Repository, maxAttempts int, backoff time.Duration) *Retrier {
	return &Retrier{repo: repo, maxAttempts: max(1, maxAttempts), backoff: backoff, now: time.Now}
}

// WithClock replaces the time source and returns the retrier.
func (r *Retrier) WithClock(now func() time.Time) *Retrier {
	r.now = now
	return r
}

func (r *Retrier) Name() string { return "retry" }

// RunBatch ignores limit; the sweep is a single statement.
func (r *Retrier) RunBatch(ctx context.Context, _ int) (Summary, error) {
	n, err := r.repo.Requeue(ctx, r.maxAttempts, r.now().Add(-r.backoff))
	if err != nil {
		return Summary{}, err
	}
	return Summary{Requeued: n}, nil
}
