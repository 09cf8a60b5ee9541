package notifications

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// TypeLoginAlert is emitted the first time a user signs in from an unknown
// ip and user agent pair.
const TypeLoginAlert = "security.login_alert"

// LoginStore remembers the fingerprints a user signed in with.
type LoginStore interface {
	// Seen records the sighting and reports whether the fingerprint is new.
	Seen(ctx context.Context, userID int64, fp, ip, userAgent string) (bool, error)
}

// LoginTracker emits a sign-in alert for unknown fingerprints.
type LoginTracker struct {
	store   LoginStore
	hasher  *fingerprint.Hasher
	emitter *Emitter
	logger  *slog.Logger
}

func NewLoginTracker(store LoginStore, hasher *fingerprint.Hasher, emitter *Emitter, l *slog.Logger) *LoginTracker {
	if l == nil {
		l = logger.Nop()
	}
	return &LoginTracker{store: store, hasher: hasher, emitter: emitter, logger: l}
}

// Track records a sign-in. It returns the id of the alert when one was
// emitted.
func (t *LoginTracker) Track(ctx context.Context, userID int64, ip, userAgent string) (int64, error) {
	if userID <= 0 {
		return 0, ErrInvalidUser
	}
	ip = strings.TrimSpace(ip)
	userAgent = fingerprint.TruncateUserAgent(strings.TrimSpace(userAgent))

	isNew, err := t.store.Seen(ctx, userID, t.hasher.Login(ip, userAgent), ip, userAgent)
	if err != nil {
		t.logger.LogAttrs(ctx, slog.LevelError, "login tracking failed",
			logger.UserID(userID), logger.Error(err))
		return 0, err
	}
	if !isNew {
		return 0, nil
	}

	var details []string
	if ip != "" {
		details = append(details, "IP "+ip)
	}
	if userAgent != "" {
		details = append(details, userAgent)
	}
	body := "A new device just signed in to your account."
	if len(details) > 0 {
		body += " (" + strings.Join(details, " • ") + ")"
	}

	return t.emitter.Emit(ctx, Event{
		UserID: userID,
		Type:   TypeLoginAlert,
		Title:  "New sign-in detected",
		Body:   body,
		URL:    "/account/profile",
		Data:   map[string]any{"ip": ip, "user_agent": userAgent},
	})
}

// PGLoginStore keeps fingerprints in user_login_fingerprints.
type PGLoginStore struct {
	pool *pgxpool.Pool
}

func NewPGLoginStore(pool *pgxpool.Pool) *PGLoginStore {
	return &PGLoginStore{pool: pool}
}

// Seen upserts the fingerprint; xmax is zero only for freshly inserted rows.
func (s *PGLoginStore) Seen(ctx context.Context, userID int64, fp, ip, userAgent string) (bool, error) {
	var addr *netip.Addr
	if a, err := netip.ParseAddr(ip); err == nil {
		addr = &a
	}
	var ua *string
	if userAgent != "" {
		ua = &userAgent
	}

	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO user_login_fingerprints (user_id, fingerprint, ip, user_agent)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, fingerprint) DO UPDATE SET
			last_seen_at = NOW(),
			ip = EXCLUDED.ip,
			user_agent = EXCLUDED.user_agent
		RETURNING (xmax = 0)`,
		userID, fp, addr, ua,
	).Scan(&inserted)
	if err != nil {
		return false, errors.Join(ErrStorageFailed, err)
	}
	return inserted, nil
}

// MemoryLoginStore is an in-process LoginStore.
type MemoryLoginStore struct {
	mu   sync.Mutex
	seen map[int64]map[string]struct{}
}

func NewMemoryLoginStore() *MemoryLoginStore {
	return &MemoryLoginStore{seen: make(map[int64]map[string]struct{})}
}

func (s *MemoryLoginStore) Seen(_ context.Context, userID int64, fp, _, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fps, ok := s.seen[userID]
	if !ok {
		fps = make(map[string]struct{})
		s.seen[userID] = fps
	}
	if _, ok := fps[fp]; ok {
		return false, nil
	}
	fps[fp] = struct{}{}
	return true, nil
}
