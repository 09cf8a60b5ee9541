package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
)

// Emitter is the single entry point domain code uses to create
// notifications. It applies the user's effective preferences, writes the
// notification and queues its out-of-band channels.
type Emitter struct {
	store         Store
	resolver      *preferences.Resolver
	subscriptions SubscriptionRegistry
	logger        *slog.Logger
	now           func() time.Time
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithEmitterLogger sets the logger for the Emitter.
func WithEmitterLogger(l *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSubscriptions enables BroadcastToSubscribers.
func WithSubscriptions(r SubscriptionRegistry) EmitterOption {
	return func(e *Emitter) {
		e.subscriptions = r
	}
}

// WithEmitterClock overrides the time source used for mute checks and
// timestamps.
func WithEmitterClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEmitter(store Store, resolver *preferences.Resolver, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		store:    store,
		resolver: resolver,
		logger:   logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit creates a notification for ev.UserID unless the user's current
// preferences suppress it. It returns 0 when nothing was created: the type
// is muted or every channel is disallowed. When the web channel is
// disallowed the notification is stored already read, so it never counts as
// unread in-app while email and push still get delivered.
func (e *Emitter) Emit(ctx context.Context, ev Event) (int64, error) {
	return e.emit(ctx, e.resolver.Scoped(), ev)
}

func (e *Emitter) emit(ctx context.Context, res *preferences.Resolver, ev Event) (int64, error) {
	if ev.UserID <= 0 {
		return 0, ErrInvalidUser
	}
	if ev.Type == "" {
		return 0, ErrInvalidType
	}

	now := e.now()
	eff := res.Type(ctx, ev.UserID, ev.Type)

	if eff.Muted(now) {
		e.suppressed(ctx, ev, SuppressedMuted)
		return 0, nil
	}
	if !eff.Channels().Any() {
		e.suppressed(ctx, ev, SuppressedDisabled)
		return 0, nil
	}

	n := Notification{
		UserID:      ev.UserID,
		ActorUserID: ev.ActorUserID,
		Type:        ev.Type,
		EntityType:  ev.EntityType,
		EntityID:    ev.EntityID,
		Title:       ev.Title,
		Body:        ev.Body,
		Data:        ev.Data,
		URL:         ev.URL,
		CreatedAt:   now,
	}
	if !eff.AllowWeb {
		n.IsRead = true
		n.ReadAt = &now
	}

	var jobs []catalog.Channel
	for _, ch := range catalog.OutOfBand {
		if eff.Allows(ch) {
			jobs = append(jobs, ch)
		}
	}

	id, err := e.store.Create(ctx, n, jobs)
	if err != nil {
		return 0, err
	}

	e.logger.LogAttrs(ctx, slog.LevelDebug, "notification emitted",
		logger.NotificationID(id),
		logger.UserID(ev.UserID),
		logger.NotificationType(ev.Type),
		slog.Any("queued", jobs))
	return id, nil
}

func (e *Emitter) suppressed(ctx context.Context, ev Event, reason string) {
	e.logger.LogAttrs(ctx, slog.LevelDebug, "notification suppressed",
		logger.UserID(ev.UserID),
		logger.NotificationType(ev.Type),
		slog.String("reason", reason))
}

// Broadcast emits ev once per user id and returns the ids of the created
// notifications. Failures for one user do not stop the others; they are
// joined into the returned error.
func (e *Emitter) Broadcast(ctx context.Context, userIDs []int64, ev Event) ([]int64, error) {
	res := e.resolver.Scoped()
	ids := make([]int64, 0, len(userIDs))
	var errs []error
	for _, uid := range userIDs {
		ev.UserID = uid
		id, err := e.emit(ctx, res, ev)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", uid, err))
			continue
		}
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids, errors.Join(errs...)
}

// BroadcastToSubscribers emits ev to every user with an enabled
// subscription to event on the given entity. Nil entity fields match
// subscriptions without an entity. The subscription's channel list is not
// consulted; per-type preferences decide delivery.
func (e *Emitter) BroadcastToSubscribers(ctx context.Context, event string, entityType *string, entityID *int64, ev Event) ([]int64, error) {
	if e.subscriptions == nil {
		return nil, ErrNoSubscriptions
	}
	users, err := e.subscriptions.Subscribers(ctx, event, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return e.Broadcast(ctx, users, ev)
}
