package preferences

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// Resolver computes effective channel permissions per user and type.
// Reads never fail: storage trouble is logged and the computed defaults are
// returned without being cached.
type Resolver struct {
	store   Storage
	catalog *catalog.Catalog
	cache   Cache
	factory func() Cache
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCacheFactory sets the constructor used for the resolver cache and for
// every Scoped copy.
func WithCacheFactory(f func() Cache) Option {
	return func(r *Resolver) {
		if f != nil {
			r.factory = f
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a resolver. Without WithCacheFactory each resolver
// gets a small in-memory cache.
func NewResolver(store Storage, cat *catalog.Catalog, opts ...Option) *Resolver {
	if cat == nil {
		cat = catalog.Default()
	}
	r := &Resolver{
		store:   store,
		catalog: cat,
		factory: func() Cache { return NewMemoryCache(256, 0) },
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = r.factory()
	return r
}

// Scoped returns a resolver sharing storage and catalog with r but holding
// the cache produced by the factory. Use one per request or worker run.
func (r *Resolver) Scoped() *Resolver {
	cp := *r
	cp.cache = r.factory()
	return &cp
}

// Catalog returns the type catalog the resolver computes against.
func (r *Resolver) Catalog() *catalog.Catalog { return r.catalog }

// Now returns the resolver clock's current time.
func (r *Resolver) Now() time.Time { return r.now() }

// Global returns the user's global preferences, or the defaults when the
// user has no stored record or the record cannot be read.
func (r *Resolver) Global(ctx context.Context, userID int64) Global {
	g, _ := r.global(ctx, userID)
	return g
}

// global reports whether the value was read successfully.
func (r *Resolver) global(ctx context.Context, userID int64) (Global, bool) {
	if userID <= 0 {
		return DefaultGlobal(), true
	}
	g, stamp, hit := r.cache.Global(ctx, userID)
	if hit {
		return g, true
	}

	g, err := r.store.GetGlobal(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		g = DefaultGlobal()
	default:
		r.log.LogAttrs(ctx, slog.LevelWarn, "global preferences unavailable, using defaults",
			logger.UserID(userID), logger.Error(err))
		return DefaultGlobal(), false
	}

	r.cache.PutGlobal(ctx, userID, stamp, g)
	return g, true
}

// SetGlobal merges u into the stored record, persists it and drops every
// cached entry of the user.
func (r *Resolver) SetGlobal(ctx context.Context, userID int64, u GlobalUpdate) (Global, error) {
	if userID <= 0 {
		return Global{}, ErrInvalidUser
	}

	current, err := r.store.GetGlobal(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		current = DefaultGlobal()
	default:
		return Global{}, err
	}

	next := u.apply(current)
	if err := r.store.SaveGlobal(ctx, userID, next); err != nil {
		return Global{}, err
	}
	r.cache.InvalidateUser(ctx, userID)
	return next, nil
}

// Type returns the effective permissions of typ for the user.
func (r *Resolver) Type(ctx context.Context, userID int64, typ string) Effective {
	t := r.catalog.Resolve(typ)
	if userID <= 0 {
		return Compute(t, DefaultGlobal(), nil)
	}
	cached, stamp, hit := r.cache.Type(ctx, userID, typ)
	if hit {
		return cached
	}

	g, ok := r.global(ctx, userID)

	var override *TypeOverride
	o, err := r.store.GetOverride(ctx, userID, typ)
	switch {
	case err == nil:
		override = &o
	case errors.Is(err, ErrNotFound):
	default:
		r.log.LogAttrs(ctx, slog.LevelWarn, "type preference unavailable, using defaults",
			logger.UserID(userID), logger.NotificationType(typ), logger.Error(err))
		ok = false
	}

	e := Compute(t, g, override)
	if ok {
		r.cache.PutType(ctx, userID, typ, stamp, e)
	}
	return e
}

// SetType stores the override for typ and drops that single cached entry.
func (r *Resolver) SetType(ctx context.Context, userID int64, typ string, o TypeOverride) error {
	if userID <= 0 {
		return ErrInvalidUser
	}
	if typ == "" {
		return ErrInvalidType
	}
	if err := r.store.SaveOverride(ctx, userID, typ, o); err != nil {
		return err
	}
	r.cache.InvalidateType(ctx, userID, typ)
	return nil
}

// Allowed reports whether ch is currently deliverable for typ: the channel
// is allowed and the mute window is closed.
func (r *Resolver) Allowed(ctx context.Context, userID int64, typ string, ch catalog.Channel) bool {
	e := r.Type(ctx, userID, typ)
	return e.Allows(ch) && !e.Muted(r.now())
}
