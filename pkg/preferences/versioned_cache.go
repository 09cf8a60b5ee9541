package preferences

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/cache"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// VersionStore holds one counter per user, shared by every process.
// Bumping it invalidates that user's entries everywhere.
type VersionStore interface {
	Version(ctx context.Context, userID int64) (int64, error)
	Bump(ctx context.Context, userID int64) (int64, error)
}

type stamped[T any] struct {
	version Stamp
	value   T
}

// VersionedCache is a process-local cache whose entries are only served
// while the user's shared version still matches the one they were stored
// under. A write in any process bumps the version, so other processes stop
// serving stale entries on their next read. When the version store is
// unreachable every read is a miss.
type VersionedCache struct {
	versions VersionStore
	log      *slog.Logger

	globals *cache.LRUCache[int64, stamped[Global]]
	types   *cache.LRUCache[string, stamped[Effective]]
}

// NewVersionedCache returns a shared cache backed by versions.
func NewVersionedCache(versions VersionStore, capacity int, ttl time.Duration, log *slog.Logger) *VersionedCache {
	if capacity <= 0 {
		capacity = 1024
	}
	if log == nil {
		log = logger.Nop()
	}
	return &VersionedCache{
		versions: versions,
		log:      log,
		globals:  cache.NewLRUCache(capacity, cache.WithTTL[int64, stamped[Global]](ttl)),
		types:    cache.NewLRUCache(capacity, cache.WithTTL[string, stamped[Effective]](ttl)),
	}
}

// stamp returns the user's current version, or NoStamp when the version
// store is unreachable.
func (c *VersionedCache) stamp(ctx context.Context, userID int64) Stamp {
	v, err := c.versions.Version(ctx, userID)
	if err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "preference cache version lookup failed",
			logger.UserID(userID), logger.Error(err))
		return NoStamp
	}
	return Stamp(v)
}

func (c *VersionedCache) Global(ctx context.Context, userID int64) (Global, Stamp, bool) {
	s := c.stamp(ctx, userID)
	if s == NoStamp {
		return Global{}, s, false
	}
	e, ok := c.globals.Get(userID)
	if !ok || e.version != s {
		return Global{}, s, false
	}
	return e.value.clone(), s, true
}

// PutGlobal files g under s, the version seen before g was read. A bump
// in between leaves an entry that the next lookup ignores.
func (c *VersionedCache) PutGlobal(_ context.Context, userID int64, s Stamp, g Global) {
	if s != NoStamp {
		c.globals.Put(userID, stamped[Global]{version: s, value: g.clone()})
	}
}

func (c *VersionedCache) Type(ctx context.Context, userID int64, typ string) (Effective, Stamp, bool) {
	s := c.stamp(ctx, userID)
	if s == NoStamp {
		return Effective{}, s, false
	}
	e, ok := c.types.Get(typeKey(userID, typ))
	if !ok || e.version != s {
		return Effective{}, s, false
	}
	return e.value, s, true
}

func (c *VersionedCache) PutType(_ context.Context, userID int64, typ string, s Stamp, e Effective) {
	if s != NoStamp {
		c.types.Put(typeKey(userID, typ), stamped[Effective]{version: s, value: e})
	}
}

func (c *VersionedCache) InvalidateUser(ctx context.Context, userID int64) {
	c.globals.Remove(userID)
	prefix := userPrefix(userID)
	c.types.RemoveFunc(func(k string) bool { return strings.HasPrefix(k, prefix) })
	c.bump(ctx, userID)
}

// InvalidateType bumps the user's version, so other processes drop all of
// that user's entries, not only typ.
func (c *VersionedCache) InvalidateType(ctx context.Context, userID int64, typ string) {
	c.types.Remove(typeKey(userID, typ))
	c.bump(ctx, userID)
}

func (c *VersionedCache) bump(ctx context.Context, userID int64) {
	if _, err := c.versions.Bump(ctx, userID); err != nil {
		c.log.LogAttrs(ctx, slog.LevelError, "preference cache version bump failed",
			logger.UserID(userID), logger.Error(err))
	}
}

// MemoryVersions is a process-local VersionStore.
type MemoryVersions struct {
	mu sync.Mutex
	v  map[int64]int64
}

func NewMemoryVersions() *MemoryVersions {
	return &MemoryVersions{v: make(map[int64]int64)}
}

func (m *MemoryVersions) Version(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v[userID], nil
}

func (m *MemoryVersions) Bump(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v[userID]++
	return m.v[userID], nil
}
