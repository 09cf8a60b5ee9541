package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
)

const notificationColumns = `id, user_id, actor_user_id, type, entity_type, entity_id,
	COALESCE(title, ''), COALESCE(body, ''), data, COALESCE(url, ''), is_read, read_at, created_at`

// PGStore keeps notifications in Postgres and enqueues their channel jobs
// in the same transaction.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, n Notification, channels []catalog.Channel) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO notifications
				(user_id, actor_user_id, type, entity_type, entity_id, title, body, data, url, is_read, read_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)
			RETURNING id`,
			n.UserID, n.ActorUserID, n.Type, n.EntityType, n.EntityID, n.Title, n.Body,
			n.Data, n.URL, n.IsRead, n.ReadAt, n.CreatedAt,
		).Scan(&id); err != nil {
			return err
		}
		return queue.EnqueueTx(ctx, tx, id, channels)
	})
	if err != nil {
		return 0, errors.Join(ErrFailedToCreate, err)
	}
	return id, nil
}

func (s *PGStore) Get(ctx context.Context, id int64) (Notification, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err != nil {
		return Notification{}, errors.Join(ErrStorageFailed, err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanNotification)
	if errors.Is(err, pgx.ErrNoRows) {
		return Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return Notification{}, errors.Join(ErrStorageFailed, err)
	}
	return n, nil
}

func (s *PGStore) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&n)
	if err != nil {
		return 0, errors.Join(ErrStorageFailed, err)
	}
	return n, nil
}

func (s *PGStore) RecentUnread(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	return s.query(ctx, `SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1 AND NOT is_read
		ORDER BY id DESC
		LIMIT $2`, userID, max(1, limit))
}

func (s *PGStore) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, error) {
	limit, offset = ClampList(limit, offset)
	return s.query(ctx, `SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (s *PGStore) After(ctx context.Context, q AfterQuery) ([]Notification, error) {
	var since *time.Time
	if !q.Since.IsZero() {
		since = &q.Since
	}
	exclude := q.Exclude
	if exclude == nil {
		exclude = []int64{}
	}
	return s.query(ctx, `SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
			AND id > $2
			AND ($3::timestamptz IS NULL OR created_at >= $3)
			AND NOT (id = ANY($4))
		ORDER BY id ASC
		LIMIT $5`, q.UserID, q.Cursor, since, exclude, max(1, q.Limit))
}

func (s *PGStore) MarkRead(ctx context.Context, userID, id int64) error {
	return s.exec(ctx, `UPDATE notifications SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
}

func (s *PGStore) MarkUnread(ctx context.Context, userID, id int64) error {
	return s.exec(ctx, `UPDATE notifications SET is_read = FALSE, read_at = NULL
		WHERE id = $1 AND user_id = $2`, id, userID)
}

func (s *PGStore) MarkAllRead(ctx context.Context, userID int64) error {
	return s.exec(ctx, `UPDATE notifications SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND NOT is_read`, userID)
}

func (s *PGStore) Delete(ctx context.Context, userID, id int64) error {
	return s.exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
}

func (s *PGStore) exec(ctx context.Context, sql string, args ...any) error {
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (s *PGStore) query(ctx context.Context, sql string, args ...any) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	out, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return out, nil
}

func scanNotification(row pgx.CollectableRow) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.ActorUserID, &n.Type, &n.EntityType, &n.EntityID,
		&n.Title, &n.Body, &n.Data, &n.URL, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	return n, err
}
