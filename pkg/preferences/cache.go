package preferences

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/cache"
)

// Stamp is the cache generation seen by a lookup. A miss hands it to the
// following Put, so a value read from the store is filed under the
// generation that preceded the read.
type Stamp int64

// NoStamp makes the following Put a no-op.
const NoStamp Stamp = -1

// Cache stores resolved preferences between store reads.
type Cache interface {
	Global(ctx context.Context, userID int64) (Global, Stamp, bool)
	PutGlobal(ctx context.Context, userID int64, s Stamp, g Global)
	Type(ctx context.Context, userID int64, typ string) (Effective, Stamp, bool)
	PutType(ctx context.Context, userID int64, typ string, s Stamp, e Effective)
	// InvalidateUser drops the global entry and every type entry of the user.
	InvalidateUser(ctx context.Context, userID int64)
	// InvalidateType drops the entry of one (user, type) pair.
	InvalidateType(ctx context.Context, userID int64, typ string)
}

func typeKey(userID int64, typ string) string {
	return strconv.FormatInt(userID, 10) + "|" + typ
}

func userPrefix(userID int64) string {
	return strconv.FormatInt(userID, 10) + "|"
}

// MemoryCache keeps entries in two bounded LRUs.
type MemoryCache struct {
	globals *cache.LRUCache[int64, Global]
	types   *cache.LRUCache[string, Effective]
}

// NewMemoryCache returns a cache holding up to capacity entries of each kind.
// A positive ttl expires entries after they were written.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryCache{
		globals: cache.NewLRUCache(capacity, cache.WithTTL[int64, Global](ttl)),
		types:   cache.NewLRUCache(capacity, cache.WithTTL[string, Effective](ttl)),
	}
}

// MemoryCache is invalidated in process only, so its stamp is always 0.
func (c *MemoryCache) Global(_ context.Context, userID int64) (Global, Stamp, bool) {
	g, ok := c.globals.Get(userID)
	if !ok {
		return Global{}, 0, false
	}
	return g.clone(), 0, true
}

func (c *MemoryCache) PutGlobal(_ context.Context, userID int64, s Stamp, g Global) {
	if s != NoStamp {
		c.globals.Put(userID, g.clone())
	}
}

func (c *MemoryCache) Type(_ context.Context, userID int64, typ string) (Effective, Stamp, bool) {
	e, ok := c.types.Get(typeKey(userID, typ))
	return e, 0, ok
}

func (c *MemoryCache) PutType(_ context.Context, userID int64, typ string, s Stamp, e Effective) {
	if s != NoStamp {
		c.types.Put(typeKey(userID, typ), e)
	}
}

func (c *MemoryCache) InvalidateUser(_ context.Context, userID int64) {
	c.globals.Remove(userID)
	prefix := userPrefix(userID)
	c.types.RemoveFunc(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func (c *MemoryCache) InvalidateType(_ context.Context, userID int64, typ string) {
	c.types.Remove(typeKey(userID, typ))
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Global(context.Context, int64) (Global, Stamp, bool) {
	return Global{}, NoStamp, false
}
func (NopCache) PutGlobal(context.Context, int64, Stamp, Global) {}
func (NopCache) Type(context.Context, int64, string) (Effective, Stamp, bool) {
	return Effective{}, NoStamp, false
}
func (NopCache) PutType(context.Context, int64, string, Stamp, Effective) {}
func (NopCache) InvalidateUser(context.Context, int64)                    {}
func (NopCache) InvalidateType(context.Context, int64, string)            {}
