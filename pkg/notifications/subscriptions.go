package notifications

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// DefaultSubscriptionChannels is stored when Subscribe gets no channels.
var DefaultSubscriptionChannels = []catalog.Channel{catalog.Web, catalog.Email}

// Subscription is a user's interest in an event, optionally narrowed to one
// entity.
type Subscription struct {
	UserID     int64
	EntityType *string
	EntityID   *int64
	Event      string
	Channels   []catalog.Channel
}

// SubscriptionRegistry stores entity subscriptions.
type SubscriptionRegistry interface {
	// Subscribe creates the subscription or re-enables it with new channels.
	Subscribe(ctx context.Context, s Subscription) error
	// Unsubscribe disables the matching subscription.
	Unsubscribe(ctx context.Context, userID int64, entityType *string, entityID *int64, event string) error
	// Subscribers returns the users with an enabled subscription whose
	// entity fields equal the arguments, nil matching nil.
	Subscribers(ctx context.Context, event string, entityType *string, entityID *int64) ([]int64, error)
}

func channelsString(chs []catalog.Channel) string {
	if len(chs) == 0 {
		chs = DefaultSubscriptionChannels
	}
	parts := make([]string, len(chs))
	for i, c := range chs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// PGSubscriptions stores subscriptions in notification_subscriptions.
type PGSubscriptions struct {
	pool *pgxpool.Pool
}

func NewPGSubscriptions(pool *pgxpool.Pool) *PGSubscriptions {
	return &PGSubscriptions{pool: pool}
}

func (p *PGSubscriptions) Subscribe(ctx context.Context, s Subscription) error {
	if s.UserID <= 0 {
		return ErrInvalidUser
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO notification_subscriptions (user_id, entity_type, entity_id, event, channels, is_enabled)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (user_id, entity_type, entity_id, event)
		DO UPDATE SET channels = EXCLUDED.channels, is_enabled = TRUE`,
		s.UserID, s.EntityType, s.EntityID, s.Event, channelsString(s.Channels))
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (p *PGSubscriptions) Unsubscribe(ctx context.Context, userID int64, entityType *string, entityID *int64, event string) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE notification_subscriptions SET is_enabled = FALSE
		WHERE user_id = $1
			AND entity_type IS NOT DISTINCT FROM $2
			AND entity_id IS NOT DISTINCT FROM $3
			AND event = $4`,
		userID, entityType, entityID, event)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (p *PGSubscriptions) Subscribers(ctx context.Context, event string, entityType *string, entityID *int64) ([]int64, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT user_id FROM notification_subscriptions
		WHERE is_enabled
			AND event = $1
			AND entity_type IS NOT DISTINCT FROM $2
			AND entity_id IS NOT DISTINCT FROM $3
		ORDER BY user_id`,
		event, entityType, entityID)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return ids, nil
}

type subscriptionKey struct {
	userID     int64
	entityType string
	hasType    bool
	entityID   int64
	hasID      bool
	event      string
}

func keyOf(userID int64, entityType *string, entityID *int64, event string) subscriptionKey {
	k := subscriptionKey{userID: userID, event: event}
	if entityType != nil {
		k.entityType, k.hasType = *entityType, true
	}
	if entityID != nil {
		k.entityID, k.hasID = *entityID, true
	}
	return k
}

type memorySubscription struct {
	channels string
	enabled  bool
}

// MemorySubscriptions is an in-process SubscriptionRegistry.
type MemorySubscriptions struct {
	mu   sync.RWMutex
	subs map[subscriptionKey]memorySubscription
}

func NewMemorySubscriptions() *MemorySubscriptions {
	return &MemorySubscriptions{subs: make(map[subscriptionKey]memorySubscription)}
}

func (m *MemorySubscriptions) Subscribe(_ context.Context, s Subscription) error {
	if s.UserID <= 0 {
		return ErrInvalidUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[keyOf(s.UserID, s.EntityType, s.EntityID, s.Event)] = memorySubscription{
		channels: channelsString(s.Channels),
		enabled:  true,
	}
	return nil
}

func (m *MemorySubscriptions) Unsubscribe(_ context.Context, userID int64, entityType *string, entityID *int64, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(userID, entityType, entityID, event)
	if s, ok := m.subs[k]; ok {
		s.enabled = false
		m.subs[k] = s
	}
	return nil
}

func (m *MemorySubscriptions) Subscribers(_ context.Context, event string, entityType *string, entityID *int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := keyOf(0, entityType, entityID, event)
	var out []int64
	for k, s := range m.subs {
		if !s.enabled {
			continue
		}
		match := k
		match.userID = 0
		if match == want {
			out = append(out, k.userID)
		}
	}
	slices.Sort(out)
	return out, nil
}
