package devices

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

type endpointKey struct {
	kind     Kind
	endpoint string
}

// MemoryRegistry is an in-process Registry for tests and development.
type MemoryRegistry struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*Device
	byKey  map[endpointKey]int64
	now    func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:  make(map[int64]*Device),
		byKey: make(map[endpointKey]int64),
		now:   time.Now,
	}
}

// WithClock replaces the time source and returns the registry.
func (r *MemoryRegistry) WithClock(now func() time.Time) *MemoryRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

// upsert must be called with the lock held.
func (r *MemoryRegistry) upsert(d Device) (Device, error) {
	now := r.now()
	key := endpointKey{d.Kind, d.Endpoint}
	if id, ok := r.byKey[key]; ok {
		existing := r.byID[id]
		if existing.UserID != d.UserID {
			return Device{}, ErrDeviceConflict
		}
		if d.P256DH != "" || d.Auth != "" {
			existing.P256DH, existing.Auth = d.P256DH, d.Auth
		}
		existing.UserAgent = d.UserAgent
		existing.LastUsedAt = now
		return *existing, nil
	}

	r.nextID++
	d.ID = r.nextID
	d.CreatedAt, d.LastUsedAt = now, now
	r.byID[d.ID] = &d
	r.byKey[key] = d.ID
	return d, nil
}

func (r *MemoryRegistry) Subscribe(_ context.Context, userID int64, sub Subscription, userAgent string) (Device, error) {
	if userID <= 0 {
		return Device{}, ErrInvalidUser
	}
	if err := sub.Validate(); err != nil {
		return Device{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsert(Device{
		UserID:    userID,
		Kind:      KindWebPush,
		Endpoint:  sub.Endpoint,
		P256DH:    sub.Keys.P256DH,
		Auth:      sub.Keys.Auth,
		UserAgent: userAgent,
	})
}

func (r *MemoryRegistry) Touch(_ context.Context, userID int64, endpoint, userAgent string) error {
	if userID <= 0 {
		return ErrInvalidUser
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.upsert(Device{UserID: userID, Kind: KindWebPush, Endpoint: endpoint, UserAgent: userAgent})
	if errors.Is(err, ErrDeviceConflict) {
		return nil
	}
	return err
}

func (r *MemoryRegistry) List(_ context.Context, userID int64, kind Kind) ([]Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Device
	for _, d := range r.byID {
		if d.UserID == userID && (kind == "" || d.Kind == kind) {
			out = append(out, *d)
		}
	}
	slices.SortFunc(out, func(a, b Device) int {
		if c := b.LastUsedAt.Compare(a.LastUsedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (r *MemoryRegistry) removeWhere(match func(*Device) bool) {
	for id, d := range r.byID {
		if match(d) {
			delete(r.byKey, endpointKey{d.Kind, d.Endpoint})
			delete(r.byID, id)
		}
	}
}

func (r *MemoryRegistry) Remove(_ context.Context, userID int64, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeWhere(func(d *Device) bool { return d.UserID == userID && d.Endpoint == endpoint })
	return nil
}

func (r *MemoryRegistry) RemoveKind(_ context.Context, userID int64, kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeWhere(func(d *Device) bool { return d.UserID == userID && d.Kind == kind })
	return nil
}

func (r *MemoryRegistry) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeWhere(func(d *Device) bool { return d.ID == id })
	return nil
}
