package preferences

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// CacheModeRequest gives every request or worker run its own cache.
	CacheModeRequest = "request"
	// CacheModeShared keeps one cache per process, invalidated through a
	// VersionStore.
	CacheModeShared = "shared"
)

type Config struct {
	CacheMode string        `env:"PREFS_CACHE_MODE" envDefault:"request"`
	CacheSize int           `env:"PREFS_CACHE_SIZE" envDefault:"1024"`
	CacheTTL  time.Duration `env:"PREFS_CACHE_TTL" envDefault:"30s"`
}

// CacheFactory builds the cache constructor for cfg. In shared mode a nil
// versions falls back to process-local counters.
func CacheFactory(cfg Config, versions VersionStore, log *slog.Logger) (func() Cache, error) {
	switch cfg.CacheMode {
	case "", CacheModeRequest:
		return func() Cache { return NewMemoryCache(cfg.CacheSize, cfg.CacheTTL) }, nil
	case CacheModeShared:
		if versions == nil {
			versions = NewMemoryVersions()
		}
		shared := NewVersionedCache(versions, cfg.CacheSize, cfg.CacheTTL, log)
		return func() Cache { return shared }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.CacheMode)
}
