package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// MemoryRepository is an in-process Repository for tests and development.
// Claims are serialized by a mutex, which gives the same exclusivity as
// row locks.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*Job
	order  []int64
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{jobs: make(map[int64]*Job), now: time.Now}
}

// WithClock replaces the time source and returns the repository.
func (r *MemoryRepository) WithClock(now func() time.Time) *MemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

func (r *MemoryRepository) Enqueue(_ context.Context, notificationID int64, channels []catalog.Channel) error {
	if err := validChannels(channels); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range channels {
		r.nextID++
		r.jobs[r.nextID] = &Job{
			ID:             r.nextID,
			NotificationID: notificationID,
			Channel:        ch,
			Status:         StatusPending,
			ScheduledAt:    r.now(),
		}
		r.order = append(r.order, r.nextID)
	}
	return nil
}

func (r *MemoryRepository) Claim(_ context.Context, channel catalog.Channel, limit int) ([]Job, error) {
	if err := validChannels([]catalog.Channel{channel}); err != nil {
		return nil, err
	}
	limit = max(1, limit)

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Job
	for _, id := range r.order {
		if len(out) == limit {
			break
		}
		j := r.jobs[id]
		if j.Channel != channel || j.Status != StatusPending {
			continue
		}
		j.Status = StatusSending
		j.ScheduledAt = r.now()
		out = append(out, *j)
	}
	return out, nil
}

func (r *MemoryRepository) MarkSent(_ context.Context, id int64) error {
	return r.update(id, func(j *Job) {
		now := r.now()
		j.Status = StatusSent
		j.SentAt = &now
		j.LastError = ""
	})
}

func (r *MemoryRepository) MarkSkipped(_ context.Context, id int64, reason string) error {
	return r.update(id, func(j *Job) {
		now := r.now()
		j.Status = StatusSkipped
		j.SentAt = &now
		j.LastError = TruncateError(reason)
	})
}

func (r *MemoryRepository) MarkFailed(_ context.Context, id int64, msg string) error {
	return r.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.AttemptCount++
		j.SentAt = nil
		j.LastError = TruncateError(msg)
	})
}

func (r *MemoryRepository) update(id int64, fn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	fn(j)
	return nil
}

func (r *MemoryRepository) Requeue(_ context.Context, maxAttempts int, olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, j := range r.jobs {
		if j.Status == StatusFailed && j.AttemptCount < maxAttempts && j.ScheduledAt.Before(olderThan) {
			j.Status = StatusPending
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *j, nil
}

// Jobs returns a snapshot of every job in insertion order.
func (r *MemoryRepository) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.jobs[id])
	}
	return out
}
