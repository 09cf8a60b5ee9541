package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

// PushWorker delivers claimed push jobs to every registered browser of the
// recipient.
type PushWorker struct {
	jobs     queue.Repository
	store    notifications.Store
	resolver *preferences.Resolver
	devices  devices.Registry
	sender   webpush.Sender
	logger   *slog.Logger
}

// NewPushWorker creates the worker. A nil sender makes every run fail with
// webpush.ErrNotConfigured without claiming jobs.
func NewPushWorker(jobs queue.Repository, store notifications.Store, resolver *preferences.Resolver, reg devices.Registry, sender webpush.Sender, l *slog.Logger) *PushWorker {
	if l == nil {
		l = logger.Nop()
	}
	return &PushWorker{
		jobs:     jobs,
		store:    store,
		resolver: resolver,
		devices:  reg,
		sender:   sender,
		logger:   l.With(logger.Component("delivery.push")),
	}
}

func (w *PushWorker) Name() string { return "push" }

// RunBatch claims up to limit push jobs and processes them one by one.
// A failing job never stops the batch.
func (w *PushWorker) RunBatch(ctx context.Context, limit int) (queue.Summary, error) {
	if w.sender == nil {
		return queue.Summary{Errors: []string{webpush.ErrNotConfigured.Error()}}, webpush.ErrNotConfigured
	}
	return runBatch(ctx, w.jobs, catalog.Push, limit, w.logger, w.resolver, w.process)
}

func (w *PushWorker) process(ctx context.Context, res *preferences.Resolver, job queue.Job) outcome {
	n, err := w.store.Get(ctx, job.NotificationID)
	if errors.Is(err, notifications.ErrNotificationNotFound) {
		return skip(queue.ReasonNotificationMissing)
	}
	if err != nil {
		return fail(err)
	}

	if !res.Type(ctx, n.UserID, n.Type).AllowPush {
		return skip(queue.ReasonPushDisabled)
	}

	targets, err := devices.PushDevices(ctx, w.devices, n.UserID)
	if err != nil {
		return fail(err)
	}
	if len(targets) == 0 {
		return skip(queue.ReasonNoSubscriptions)
	}

	payload, err := webpush.NewPayload(n.ID, n.Title, n.Body, n.URL, n.Type, n.Data, n.CreatedAt).Marshal()
	if err != nil {
		return fail(err)
	}

	delivered := 0
	var lastErr error
	for _, d := range targets {
		err := w.sender.Send(ctx, webpush.Target{Endpoint: d.Endpoint, P256DH: d.P256DH, Auth: d.Auth}, payload)
		if err == nil {
			delivered++
			continue
		}
		lastErr = err

		if webpush.Permanent(err) {
			if derr := w.devices.Delete(ctx, d.ID); derr != nil {
				w.logger.LogAttrs(ctx, slog.LevelError, "failed to prune device",
					logger.DeviceID(d.ID), logger.Error(derr))
			}
			w.logger.LogAttrs(ctx, slog.LevelWarn, "pruned dead push device",
				logger.DeviceID(d.ID), logger.UserID(n.UserID), logger.Error(err))
			continue
		}
		w.logger.LogAttrs(ctx, slog.LevelWarn, "push delivery failed",
			logger.DeviceID(d.ID), logger.JobID(job.ID), logger.Error(err))
	}

	if delivered > 0 {
		return sent()
	}
	return fail(fmt.Errorf("%s: %w", queue.ReasonDeliveryFailed, lastErr))
}
