package stream

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
)

// Client identifies the browser session behind a connection.
type Client struct {
	UserID    int64
	SessionID string
	IP        string
	UserAgent string
	// Cursor is the last id the client has seen.
	Cursor int64
}

// Hello is the first event of every connection.
type Hello struct {
	OK     bool  `json:"ok"`
	Cursor int64 `json:"cursor"`
}

// Bye is the last event of a connection that ran its full duration.
type Bye struct {
	Cursor int64 `json:"cursor"`
}

// Notify is the data of a notify event.
type Notify struct {
	ID      int64          `json:"id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Link    string         `json:"link"`
	Created string         `json:"created"`
	Payload map[string]any `json:"payload"`
}

func newNotify(n notifications.Notification) Notify {
	payload := n.Data
	if payload == nil {
		payload = map[string]any{}
	}
	return Notify{
		ID:      n.ID,
		Type:    n.Type,
		Title:   n.Title,
		Body:    n.Body,
		Link:    n.URL,
		Created: n.CreatedAt.UTC().Format(time.RFC3339),
		Payload: payload,
	}
}

// Gateway serves the per-user notification stream.
type Gateway struct {
	store    notifications.Store
	resolver *preferences.Resolver
	devices  devices.Registry
	hasher   *fingerprint.Hasher
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Gateway)

// WithDevices registers every connection as a web device of the user.
func WithDevices(reg devices.Registry, h *fingerprint.Hasher) Option {
	return func(g *Gateway) {
		g.devices = reg
		g.hasher = h
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock replaces the wall clock and the sleep between polls.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

func NewGateway(store notifications.Store, resolver *preferences.Resolver, cfg Config, opts ...Option) *Gateway {
	g := &Gateway{
		store:    store,
		resolver: resolver,
		cfg:      cfg.withDefaults(),
		logger:   logger.Nop(),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logger.Component("stream"))
	return g
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CursorFromRequest reads the resume cursor from the Last-Event-ID header,
// then the cursor query parameter. Anything unparsable is 0.
func CursorFromRequest(r *http.Request) int64 {
	raw := strings.TrimSpace(r.Header.Get("Last-Event-ID"))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("cursor"))
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Serve streams notifications of c.UserID until the configured duration
// elapses or the request is done. The cursor only advances past delivered
// rows. ErrInvalidUser and ErrStreamingUnsupported are returned before any
// byte is written, so the caller can still answer with an error status.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, c Client) error {
	if c.UserID <= 0 {
		return ErrInvalidUser
	}
	ctx := r.Context()

	w.Header().Set("X-Accel-Buffering", "no")
	// The connection outlives the server write timeout on purpose.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ew, err := newEventWriter(w, r)
	if err != nil {
		return err
	}

	log := g.logger.With(logger.UserID(c.UserID))
	g.touch(ctx, c, log)

	cursor := c.Cursor
	if err := ew.Event("hello", 0, Hello{OK: true, Cursor: cursor}); err != nil {
		return err
	}

	skipped := newSkipSet(g.cfg.MaxSkipped)
	start := g.now()
	deadline := start.Add(g.cfg.Duration)
	lastTouch := start

	for g.now().Before(deadline) {
		delivered, err := g.poll(ctx, ew, c.UserID, &cursor, skipped, log)
		if err != nil {
			return err
		}
		if delivered == 0 {
			if err := ew.Comment("ping"); err != nil {
				return err
			}
		}

		if now := g.now(); now.Sub(lastTouch) >= g.cfg.TouchInterval {
			g.touch(ctx, c, log)
			lastTouch = now
		}

		if err := g.sleep(ctx, g.cfg.PollInterval); err != nil {
			log.LogAttrs(ctx, slog.LevelDebug, "stream closed by client", logger.Cursor(cursor))
			return nil
		}
	}

	return ew.Event("bye", 0, Bye{Cursor: cursor})
}

// poll emits every eligible row above the cursor and returns how many
// were emitted. A failing store read counts as an empty poll.
func (g *Gateway) poll(ctx context.Context, ew *eventWriter, userID int64, cursor *int64, skipped *skipSet, log *slog.Logger) (int, error) {
	res := g.resolver.Scoped()
	now := g.now()

	for _, typ := range skipped.Types() {
		if res.Allowed(ctx, userID, typ, catalog.Web) {
			skipped.Release(typ)
		}
	}

	q := notifications.AfterQuery{
		UserID:  userID,
		Cursor:  max(*cursor, skipped.Floor()),
		Exclude: skipped.IDs(),
		Limit:   g.cfg.BatchSize,
	}
	if g.cfg.MaxAge > 0 {
		q.Since = now.Add(-g.cfg.MaxAge)
	}

	rows, err := g.store.After(ctx, q)
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "failed to poll notifications", logger.Cursor(*cursor), logger.Error(err))
		return 0, nil
	}

	delivered := 0
	for _, n := range rows {
		if !res.Allowed(ctx, userID, n.Type, catalog.Web) {
			skipped.Add(n.ID, n.Type)
			continue
		}
		if err := ew.Event("notify", n.ID, newNotify(n)); err != nil {
			return delivered, err
		}
		delivered++
		*cursor = n.ID
	}
	if delivered > 0 {
		skipped.Prune(*cursor)
	}
	return delivered, nil
}

func (g *Gateway) touch(ctx context.Context, c Client, log *slog.Logger) {
	if g.devices == nil || g.hasher == nil {
		return
	}
	endpoint := devices.WebEndpoint(g.hasher, c.UserID, c.SessionID, c.IP, c.UserAgent)
	if err := g.devices.Touch(ctx, c.UserID, endpoint, fingerprint.TruncateUserAgent(c.UserAgent)); err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "failed to touch web device", logger.Error(err))
	}
}
