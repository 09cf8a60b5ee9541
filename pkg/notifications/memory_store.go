package notifications

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
)

// MemoryStore is an in-process Store for tests and development. Jobs go to
// the given queue repository.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Notification
	jobs   queue.Repository
	now    func() time.Time
}

// NewMemoryStore creates a store that enqueues into jobs. A nil jobs keeps
// jobs in a private MemoryRepository.
func NewMemoryStore(jobs queue.Repository) *MemoryStore {
	if jobs == nil {
		jobs = queue.NewMemoryRepository()
	}
	return &MemoryStore{rows: make(map[int64]Notification), jobs: jobs, now: time.Now}
}

// WithClock replaces the time source and returns the store.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Create(ctx context.Context, n Notification, channels []catalog.Channel) (int64, error) {
	s.mu.Lock()
	s.nextID++
	n.ID = s.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.Data = maps.Clone(n.Data)
	s.rows[n.ID] = n
	s.mu.Unlock()

	if err := s.jobs.Enqueue(ctx, n.ID, channels); err != nil {
		s.mu.Lock()
		delete(s.rows, n.ID)
		s.mu.Unlock()
		return 0, err
	}
	return n.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.rows[id]
	if !ok {
		return Notification{}, ErrNotificationNotFound
	}
	return n, nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := 0
	for _, n := range s.rows {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

// sorted returns the user's rows matching keep, ordered by id.
func (s *MemoryStore) sorted(userID int64, desc bool, keep func(Notification) bool) []Notification {
	var out []Notification
	for _, n := range s.rows {
		if n.UserID == userID && (keep == nil || keep(n)) {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b Notification) int {
		if desc {
			a, b = b, a
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func page(rows []Notification, limit, offset int) []Notification {
	if offset >= len(rows) {
		return []Notification{}
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (s *MemoryStore) RecentUnread(_ context.Context, userID int64, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.sorted(userID, true, func(n Notification) bool { return !n.IsRead })
	return page(rows, max(1, limit), 0), nil
}

func (s *MemoryStore) List(_ context.Context, userID int64, limit, offset int) ([]Notification, error) {
	limit, offset = ClampList(limit, offset)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.sorted(userID, true, nil), limit, offset), nil
}

func (s *MemoryStore) After(_ context.Context, q AfterQuery) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.sorted(q.UserID, false, func(n Notification) bool {
		if n.ID <= q.Cursor || slices.Contains(q.Exclude, n.ID) {
			return false
		}
		return q.Since.IsZero() || !n.CreatedAt.Before(q.Since)
	})
	return page(rows, max(1, q.Limit), 0), nil
}

func (s *MemoryStore) update(userID, id int64, fn func(*Notification)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok || n.UserID != userID {
		return
	}
	fn(&n)
	s.rows[id] = n
}

func (s *MemoryStore) MarkRead(_ context.Context, userID, id int64) error {
	s.update(userID, id, func(n *Notification) {
		now := s.now()
		n.IsRead, n.ReadAt = true, &now
	})
	return nil
}

func (s *MemoryStore) MarkUnread(_ context.Context, userID, id int64) error {
	s.update(userID, id, func(n *Notification) {
		n.IsRead, n.ReadAt = false, nil
	})
	return nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, n := range s.rows {
		if n.UserID == userID && !n.IsRead {
			n.IsRead, n.ReadAt = true, &now
			s.rows[id] = n
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.rows[id]; ok && n.UserID == userID {
		delete(s.rows, id)
	}
	return nil
}

// Len reports the number of stored rows.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
