package notifications

import (
	"time"
)

// Notification is a stored in-app notification.
type Notification struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	ActorUserID *int64         `json:"actor_user_id,omitempty"`
	Type        string         `json:"type"`
	EntityType  *string        `json:"entity_type,omitempty"`
	EntityID    *int64         `json:"entity_id,omitempty"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Data        map[string]any `json:"data,omitempty"`
	URL         string         `json:"url,omitempty"`
	IsRead      bool           `json:"is_read"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Event describes something that may become a notification for one user.
type Event struct {
	UserID      int64
	Type        string
	Title       string
	Body        string
	URL         string
	EntityType  *string
	EntityID    *int64
	ActorUserID *int64
	Data        map[string]any
}

// Suppression reasons reported by Emit.
const (
	SuppressedMuted    = "muted"
	SuppressedDisabled = "all channels disabled"
)

// Limits of the read queries.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	DefaultPeekLimit = 3
	MaxPeekLimit     = 10
)

// ClampList normalizes list paging: limit 1..100 (default 20), offset >= 0.
func ClampList(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return min(limit, MaxListLimit), max(offset, 0)
}

// ClampPeek normalizes the preview size to 1..10 (default 3).
func ClampPeek(limit int) int {
	if limit <= 0 {
		limit = DefaultPeekLimit
	}
	return min(limit, MaxPeekLimit)
}

// Ptr returns a pointer to v, for the optional Event fields.
func Ptr[T any](v T) *T { return &v }
