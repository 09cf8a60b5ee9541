package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnqueueTx inserts pending jobs through db, usually the transaction that
// inserted the notification.
func EnqueueTx(ctx context.Context, db Execer, notificationID int64, channels []catalog.Channel) error {
	if err := validChannels(channels); err != nil {
		return err
	}
	for _, ch := range channels {
		if _, err := db.Exec(ctx, `
			INSERT INTO notification_channels_queue (notification_id, channel, status, scheduled_at)
			VALUES ($1, $2, 'pending', NOW())`, notificationID, string(ch),
		); err != nil {
			return errors.Join(ErrFailedToEnqueue, err)
		}
	}
	return nil
}

// PGRepository keeps jobs in notification_channels_queue.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Enqueue(ctx context.Context, notificationID int64, channels []catalog.Channel) error {
	return EnqueueTx(ctx, r.pool, notificationID, channels)
}

// Claim locks pending rows with SKIP LOCKED so concurrent workers never
// select the same job, and flips them to sending before the locks are
// released at commit.
func (r *PGRepository) Claim(ctx context.Context, channel catalog.Channel, limit int) (jobs []Job, err error) {
	if err := validChannels([]catalog.Channel{channel}); err != nil {
		return nil, err
	}
	limit = max(1, limit)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Join(ErrClaimFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, notification_id, channel, attempt_count, COALESCE(last_error, ''), scheduled_at
		FROM notification_channels_queue
		WHERE channel = $1 AND status = 'pending'
		ORDER BY id ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, string(channel), limit)
	if err != nil {
		return nil, errors.Join(ErrClaimFailed, err)
	}
	jobs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Job, error) {
		var (
			j  Job
			ch string
		)
		err := row.Scan(&j.ID, &j.NotificationID, &ch, &j.AttemptCount, &j.LastError, &j.ScheduledAt)
		j.Channel = catalog.Channel(ch)
		j.Status = StatusSending
		return j, err
	})
	if err != nil {
		return nil, errors.Join(ErrClaimFailed, err)
	}

	if len(jobs) > 0 {
		ids := make([]int64, len(jobs))
		for i, j := range jobs {
			ids[i] = j.ID
		}
		if _, err = tx.Exec(ctx, `
			UPDATE notification_channels_queue
			SET status = 'sending', scheduled_at = NOW()
			WHERE id = ANY($1)`, ids); err != nil {
			return nil, errors.Join(ErrClaimFailed, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, errors.Join(ErrClaimFailed, err)
	}
	return jobs, nil
}

func (r *PGRepository) MarkSent(ctx context.Context, id int64) error {
	return r.update(ctx, id, `
		UPDATE notification_channels_queue
		SET status = 'sent', sent_at = NOW(), last_error = NULL
		WHERE id = $1`)
}

func (r *PGRepository) MarkSkipped(ctx context.Context, id int64, reason string) error {
	return r.update(ctx, id, `
		UPDATE notification_channels_queue
		SET status = 'skipped', sent_at = NOW(), last_error = $2
		WHERE id = $1`, TruncateError(reason))
}

func (r *PGRepository) MarkFailed(ctx context.Context, id int64, msg string) error {
	return r.update(ctx, id, `
		UPDATE notification_channels_queue
		SET status = 'failed', attempt_count = attempt_count + 1, sent_at = NULL, last_error = $2
		WHERE id = $1`, TruncateError(msg))
}

func (r *PGRepository) update(ctx context.Context, id int64, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return errors.Join(ErrFailedToUpdateJobStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	return nil
}

func (r *PGRepository) Requeue(ctx context.Context, maxAttempts int, olderThan time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notification_channels_queue
		SET status = 'pending'
		WHERE status = 'failed' AND attempt_count < $1 AND scheduled_at < $2`,
		maxAttempts, olderThan)
	if err != nil {
		return 0, errors.Join(ErrFailedToUpdateJobStatus, err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PGRepository) Get(ctx context.Context, id int64) (Job, error) {
	var (
		j      Job
		ch, st string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, notification_id, channel, status, attempt_count, COALESCE(last_error, ''), scheduled_at, sent_at
		FROM notification_channels_queue
		WHERE id = $1`, id,
	).Scan(&j.ID, &j.NotificationID, &ch, &st, &j.AttemptCount, &j.LastError, &j.ScheduledAt, &j.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, err
	}
	j.Channel = catalog.Channel(ch)
	j.Status = Status(st)
	return j, nil
}
