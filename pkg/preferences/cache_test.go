package preferences_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
)

func TestMemoryCache_InvalidateUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := preferences.NewMemoryCache(16, 0)

	c.PutGlobal(ctx, 1, 0, preferences.DefaultGlobal())
	c.PutType(ctx, 1, "task.assigned", 0, preferences.Effective{AllowWeb: true})
	c.PutType(ctx, 1, "note.activity", 0, preferences.Effective{AllowWeb: true})
	c.PutType(ctx, 11, "task.assigned", 0, preferences.Effective{AllowWeb: true})

	c.InvalidateUser(ctx, 1)

	_, _, ok := c.Global(ctx, 1)
	assert.False(t, ok)
	_, _, ok = c.Type(ctx, 1, "task.assigned")
	assert.False(t, ok)
	_, _, ok = c.Type(ctx, 1, "note.activity")
	assert.False(t, ok)
	_, _, ok = c.Type(ctx, 11, "task.assigned")
	assert.True(t, ok, "user 11 shares a prefix digit but not the key prefix")
}

func TestMemoryCache_GlobalIsCopied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := preferences.NewMemoryCache(4, 0)

	g := preferences.DefaultGlobal()
	c.PutGlobal(ctx, 1, 0, g)
	g.Categories[catalog.CategoryTask] = false

	got, _, ok := c.Global(ctx, 1)
	require.True(t, ok)
	assert.True(t, got.CategoryEnabled(catalog.CategoryTask))
}

func TestVersionedCache_CrossProcessInvalidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	versions := preferences.NewMemoryVersions()
	a := preferences.NewVersionedCache(versions, 16, time.Minute, nil)
	b := preferences.NewVersionedCache(versions, 16, time.Minute, nil)

	_, stamp, ok := b.Type(ctx, 1, "task.assigned")
	require.False(t, ok)
	b.PutType(ctx, 1, "task.assigned", stamp, preferences.Effective{AllowEmail: true})
	_, _, ok = b.Type(ctx, 1, "task.assigned")
	require.True(t, ok)

	a.InvalidateUser(ctx, 1)

	_, stamp, ok = b.Type(ctx, 1, "task.assigned")
	assert.False(t, ok, "stale entry in another process must be ignored")

	b.PutType(ctx, 1, "task.assigned", stamp, preferences.Effective{})
	_, _, ok = b.Type(ctx, 1, "task.assigned")
	assert.True(t, ok)
}

func TestVersionedCache_BumpBetweenMissAndPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	versions := preferences.NewMemoryVersions()
	c := preferences.NewVersionedCache(versions, 16, time.Minute, nil)

	_, gStamp, ok := c.Global(ctx, 1)
	require.False(t, ok)
	_, tStamp, ok := c.Type(ctx, 1, "task.assigned")
	require.False(t, ok)

	// Another process saves preferences after our store read.
	_, err := versions.Bump(ctx, 1)
	require.NoError(t, err)

	c.PutGlobal(ctx, 1, gStamp, preferences.DefaultGlobal())
	c.PutType(ctx, 1, "task.assigned", tStamp, preferences.Effective{AllowWeb: true})

	_, _, ok = c.Global(ctx, 1)
	assert.False(t, ok, "value read before the bump must not be served")
	_, _, ok = c.Type(ctx, 1, "task.assigned")
	assert.False(t, ok, "value read before the bump must not be served")
}

// bumpingStorage saves a new global record through another resolver while
// the first read of user 1 is in flight.
type bumpingStorage struct {
	*preferences.MemoryStorage
	versions *preferences.MemoryVersions
	once     atomic.Bool
}

func (s *bumpingStorage) GetGlobal(ctx context.Context, userID int64) (preferences.Global, error) {
	g, err := s.MemoryStorage.GetGlobal(ctx, userID)
	if s.once.CompareAndSwap(false, true) {
		next := preferences.DefaultGlobal()
		next.AllowInApp = false
		if err := s.MemoryStorage.SaveGlobal(ctx, userID, next); err != nil {
			return g, err
		}
		if _, err := s.versions.Bump(ctx, userID); err != nil {
			return g, err
		}
	}
	return g, err
}

func TestResolver_ConcurrentWriteIsNotCachedStale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	versions := preferences.NewMemoryVersions()
	store := &bumpingStorage{MemoryStorage: preferences.NewMemoryStorage(), versions: versions}

	factory, err := preferences.CacheFactory(preferences.Config{CacheMode: preferences.CacheModeShared, CacheSize: 64, CacheTTL: time.Minute}, versions, nil)
	require.NoError(t, err)
	r := preferences.NewResolver(store, catalog.Default(), preferences.WithCacheFactory(factory))

	require.True(t, r.Scoped().Global(ctx, 1).AllowInApp, "first read sees the old record")
	assert.False(t, r.Scoped().Global(ctx, 1).AllowInApp, "second read sees the write")
}

type brokenVersions struct{}

func (brokenVersions) Version(context.Context, int64) (int64, error) {
	return 0, errors.New("redis down")
}

func (brokenVersions) Bump(context.Context, int64) (int64, error) {
	return 0, errors.New("redis down")
}

func TestVersionedCache_VersionStoreDownIsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := preferences.NewVersionedCache(brokenVersions{}, 16, time.Minute, nil)

	_, stamp, ok := c.Global(ctx, 1)
	require.False(t, ok)
	assert.Equal(t, preferences.NoStamp, stamp)

	c.PutGlobal(ctx, 1, stamp, preferences.DefaultGlobal())
	_, _, ok = c.Global(ctx, 1)
	assert.False(t, ok)
}

func TestResolver_SharedCacheAcrossScopes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newCountingStorage()
	versions := preferences.NewMemoryVersions()

	factory, err := preferences.CacheFactory(preferences.Config{CacheMode: preferences.CacheModeShared, CacheSize: 64, CacheTTL: time.Minute}, versions, nil)
	require.NoError(t, err)

	writer := preferences.NewResolver(store, catalog.Default(), preferences.WithCacheFactory(factory))
	// A second process: same storage and version counters, its own local cache.
	otherFactory, err := preferences.CacheFactory(preferences.Config{CacheMode: preferences.CacheModeShared, CacheSize: 64, CacheTTL: time.Minute}, versions, nil)
	require.NoError(t, err)
	reader := preferences.NewResolver(store, catalog.Default(), preferences.WithCacheFactory(otherFactory))

	require.False(t, reader.Scoped().Type(ctx, 5, "system.alert").AllowEmail)
	reads := store.overrideReads.Load()
	reader.Scoped().Type(ctx, 5, "system.alert")
	assert.Equal(t, reads, store.overrideReads.Load(), "shared cache survives across scopes")

	_, err = writer.SetGlobal(ctx, 5, preferences.GlobalUpdate{AllowEmail: ptr(true)})
	require.NoError(t, err)

	assert.True(t, reader.Scoped().Type(ctx, 5, "system.alert").AllowEmail)
}

func TestCacheFactory_UnknownMode(t *testing.T) {
	t.Parallel()

	_, err := preferences.CacheFactory(preferences.Config{CacheMode: "global"}, nil, nil)
	assert.ErrorIs(t, err, preferences.ErrUnknownMode)
}
