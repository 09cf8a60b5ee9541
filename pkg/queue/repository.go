package queue

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// Repository stores channel jobs.
type Repository interface {
	// Enqueue inserts one pending job per channel for the notification.
	Enqueue(ctx context.Context, notificationID int64, channels []catalog.Channel) error

	// Claim moves up to limit pending jobs of the channel to sending, lowest
	// id first, and returns them. A job is handed to at most one caller.
	Claim(ctx context.Context, channel catalog.Channel, limit int) ([]Job, error)

	MarkSent(ctx context.Context, id int64) error
	MarkSkipped(ctx context.Context, id int64, reason string) error
	// MarkFailed increments the attempt counter and records msg.
	MarkFailed(ctx context.Context, id int64, msg string) error

	// Requeue moves failed jobs with fewer than maxAttempts attempts, last
	// claimed before olderThan, back to pending. It returns how many moved.
	Requeue(ctx context.Context, maxAttempts int, olderThan time.Time) (int, error)

	Get(ctx context.Context, id int64) (Job, error)
}

func validChannels(channels []catalog.Channel) error {
	for _, ch := range channels {
		if ch != catalog.Email && ch != catalog.Push {
			return ErrUnknownChannel
		}
	}
	return nil
}
