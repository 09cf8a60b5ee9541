package notifications

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// AfterQuery selects stream candidates for one user.
type AfterQuery struct {
	UserID int64
	// Cursor excludes ids at or below it.
	Cursor int64
	// Since excludes rows created before it when non-zero.
	Since time.Time
	// Exclude lists ids the caller already decided to skip.
	Exclude []int64
	Limit   int
}

// Store persists notifications. Every user-facing method is scoped by
// userID; a row of another user behaves as if it did not exist.
type Store interface {
	// Create inserts n and one pending queue job per channel in a single
	// transaction, returning the new id.
	Create(ctx context.Context, n Notification, channels []catalog.Channel) (int64, error)

	// Get loads a notification by id regardless of owner. Workers only.
	Get(ctx context.Context, id int64) (Notification, error)

	UnreadCount(ctx context.Context, userID int64) (int, error)
	// RecentUnread returns the newest unread rows.
	RecentUnread(ctx context.Context, userID int64, limit int) ([]Notification, error)
	// List returns rows newest first.
	List(ctx context.Context, userID int64, limit, offset int) ([]Notification, error)
	// After returns rows above the cursor in ascending id order.
	After(ctx context.Context, q AfterQuery) ([]Notification, error)

	MarkRead(ctx context.Context, userID, id int64) error
	MarkUnread(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, userID, id int64) error
}
