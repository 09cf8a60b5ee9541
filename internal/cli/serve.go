package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	notifmodule "github.com/dmitrymomot/notifyhub/modules/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/config"
	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
	"github.com/dmitrymomot/notifyhub/pkg/httpserver"
	"github.com/dmitrymomot/notifyhub/pkg/jwt"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
	"github.com/dmitrymomot/notifyhub/pkg/redis"
	"github.com/dmitrymomot/notifyhub/pkg/requestid"
	"github.com/dmitrymomot/notifyhub/pkg/stream"
	"github.com/dmitrymomot/notifyhub/pkg/token"
)

// NewServeCommand runs the HTTP API and, unless RUN_WORKERS=false, the
// delivery workers in the same process.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the notification API and live stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	var cfg serveConfig
	if err := config.Load(&cfg); err != nil {
		return WrapExitError(ExitCommandError, "failed to load server configuration", err)
	}
	dcfg, err := loadDelivery()
	if err != nil {
		return err
	}

	c, err := openCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	auth, err := jwt.New(cfg.JWT)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid session token settings", err)
	}

	gateway := stream.NewGateway(c.store, c.resolver, cfg.Stream,
		stream.WithDevices(c.devices, fingerprint.NewHasher(cfg.FingerprintKey)),
		stream.WithLogger(c.log),
	)

	module := notifmodule.New(cfg.Module, notifmodule.Deps{
		Store:         c.store,
		Resolver:      c.resolver,
		Devices:       c.devices,
		Subscriptions: c.subs,
		Gateway:       gateway,
		Auth:          auth,
		CSRF:          token.NewCSRF(cfg.CSRFSecret, cfg.CSRFTTL),
		Push:          dcfg.Push,
		Logger:        c.log,
	})

	checks := []func(context.Context) error{pg.Healthcheck(c.pool)}
	if c.redis != nil {
		checks = append(checks, redis.Healthcheck(c.redis))
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(c.log, checks...))
	r.Mount("/notifications", module.Handle())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.New(cfg.HTTP, httpserver.WithLogger(c.log)).Run(ctx, r)
	})

	if cfg.RunWorkers {
		handlers, err := workerHandlers(c, dcfg)
		if err != nil {
			return err
		}
		w, err := queue.NewWorker(handlers, append(queue.FromConfig(dcfg.Queue), queue.WithWorkerLogger(c.log))...)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create worker", err)
		}
		g.Go(w.Run(ctx))
	}

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server stopped", err)
	}
	return nil
}

// workerHandlers returns the in-process handlers. Push is left out until
// a valid VAPID key pair is configured; retry runs only with a positive attempt limit.
func workerHandlers(c *core, cfg deliveryConfig) ([]queue.BatchHandler, error) {
	ew, err := c.emailWorker(cfg)
	if err != nil {
		return nil, err
	}
	handlers := []queue.BatchHandler{ew}
	if err := cfg.Push.Validate(); err == nil {
		handlers = append(handlers, c.pushWorker(cfg))
	} else {
		c.log.Warn("push worker disabled", logger.Error(err))
	}
	if cfg.Queue.RetryMaxAttempts > 0 {
		handlers = append(handlers, c.retrier(cfg))
	}
	return handlers, nil
}
