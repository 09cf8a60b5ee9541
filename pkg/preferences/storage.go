package preferences

import (
	"context"
	"sync"
)

// Storage persists global and per-type preferences.
// Get methods return ErrNotFound when no row exists.
type Storage interface {
	GetGlobal(ctx context.Context, userID int64) (Global, error)
	SaveGlobal(ctx context.Context, userID int64, g Global) error
	GetOverride(ctx context.Context, userID int64, typ string) (TypeOverride, error)
	SaveOverride(ctx context.Context, userID int64, typ string, o TypeOverride) error
}

type overrideKey struct {
	userID int64
	typ    string
}

// MemoryStorage is an in-process Storage for tests and development.
type MemoryStorage struct {
	mu        sync.RWMutex
	globals   map[int64]Global
	overrides map[overrideKey]TypeOverride
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		globals:   make(map[int64]Global),
		overrides: make(map[overrideKey]TypeOverride),
	}
}

func (s *MemoryStorage) GetGlobal(_ context.Context, userID int64) (Global, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.globals[userID]
	if !ok {
		return Global{}, ErrNotFound
	}
	return g.clone(), nil
}

func (s *MemoryStorage) SaveGlobal(_ context.Context, userID int64, g Global) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals[userID] = g.clone()
	return nil
}

func (s *MemoryStorage) GetOverride(_ context.Context, userID int64, typ string) (TypeOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[overrideKey{userID, typ}]
	if !ok {
		return TypeOverride{}, ErrNotFound
	}
	return o, nil
}

func (s *MemoryStorage) SaveOverride(_ context.Context, userID int64, typ string, o TypeOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[overrideKey{userID, typ}] = o
	return nil
}
