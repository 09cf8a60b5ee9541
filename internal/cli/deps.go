package cli

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/config"
	"github.com/dmitrymomot/notifyhub/pkg/delivery"
	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
	"github.com/dmitrymomot/notifyhub/pkg/redis"
	"github.com/dmitrymomot/notifyhub/pkg/requestid"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

// core holds the services shared by every command.
type core struct {
	cfg       coreConfig
	log       *slog.Logger
	pool      *pgxpool.Pool
	redis     *goredis.Client
	catalog   *catalog.Catalog
	resolver  *preferences.Resolver
	jobs      queue.Repository
	store     notifications.Store
	devices   devices.Registry
	directory notifications.Directory
	subs      notifications.SubscriptionRegistry
	emitter   *notifications.Emitter
}

func newLogger(cfg logger.Config) *slog.Logger {
	return logger.FromConfig(cfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
}

// openCore loads configuration and connects to Postgres and, when
// configured, Redis. close releases both.
func openCore(ctx context.Context) (*core, error) {
	var cfg coreConfig
	if err := config.Load(&cfg); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	c := &core{cfg: cfg, log: newLogger(cfg.Log)}

	cat, err := catalog.FromConfig(cfg.Catalog)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load notification catalog", err)
	}
	c.catalog = cat

	c.pool, err = pg.Connect(ctx, cfg.PG)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to connect to postgres", err)
	}

	var versions preferences.VersionStore
	if cfg.Redis.Enabled() {
		c.redis, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			c.close()
			return nil, WrapExitError(ExitCommandError, "failed to connect to redis", err)
		}
		versions = preferences.NewRedisVersions(c.redis, cfg.RedisPrefix, 0)
	}

	factory, err := preferences.CacheFactory(cfg.Prefs, versions, c.log)
	if err != nil {
		c.close()
		return nil, WrapExitError(ExitCommandError, "invalid preference cache settings", err)
	}

	c.resolver = preferences.NewResolver(preferences.NewPGStorage(c.pool), cat,
		preferences.WithCacheFactory(factory),
		preferences.WithLogger(c.log),
	)
	c.jobs = queue.NewPGRepository(c.pool)
	c.store = notifications.NewPGStore(c.pool)
	c.devices = devices.NewPGRegistry(c.pool)
	c.directory = notifications.NewPGDirectory(c.pool)
	c.subs = notifications.NewPGSubscriptions(c.pool)
	c.emitter = notifications.NewEmitter(c.store, c.resolver,
		notifications.WithEmitterLogger(c.log),
		notifications.WithSubscriptions(c.subs),
	)
	return c, nil
}

func (c *core) close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Error("failed to close redis client", logger.Error(err))
		}
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

// pushSender returns nil when VAPID keys are missing or invalid; the push worker then
// reports webpush.ErrNotConfigured.
func (c *core) pushSender(cfg webpush.Config) webpush.Sender {
	s, err := webpush.NewSender(cfg)
	if err != nil {
		c.log.Warn("web push is not configured", logger.Error(err))
		return nil
	}
	return s
}

func (c *core) pushWorker(cfg deliveryConfig) *delivery.PushWorker {
	return delivery.NewPushWorker(c.jobs, c.store, c.resolver, c.devices, c.pushSender(cfg.Push), c.log)
}

func (c *core) emailWorker(cfg deliveryConfig) (*delivery.EmailWorker, error) {
	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure email transport", err)
	}
	return delivery.NewEmailWorker(c.jobs, c.store, c.resolver, c.directory, sender,
		delivery.WithAppName(c.cfg.Log.Service),
		delivery.WithBaseURL(cfg.Email.BaseURL),
		delivery.WithEmailLogger(c.log),
	), nil
}

func (c *core) retrier(cfg deliveryConfig) *queue.Retrier {
	return queue.NewRetrier(c.jobs, cfg.Queue.RetryMaxAttempts, cfg.Queue.RetryBackoff)
}

func loadDelivery() (deliveryConfig, error) {
	var cfg deliveryConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, WrapExitError(ExitCommandError, "failed to load delivery configuration", err)
	}
	return cfg, nil
}
