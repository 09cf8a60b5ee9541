package devices

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRegistry keeps devices in notification_devices.
type PGRegistry struct {
	pool *pgxpool.Pool
}

func NewPGRegistry(pool *pgxpool.Pool) *PGRegistry {
	return &PGRegistry{pool: pool}
}

func (r *PGRegistry) Subscribe(ctx context.Context, userID int64, sub Subscription, userAgent string) (Device, error) {
	if userID <= 0 {
		return Device{}, ErrInvalidUser
	}
	if err := sub.Validate(); err != nil {
		return Device{}, err
	}

	d := Device{
		UserID:    userID,
		Kind:      KindWebPush,
		Endpoint:  sub.Endpoint,
		P256DH:    sub.Keys.P256DH,
		Auth:      sub.Keys.Auth,
		UserAgent: userAgent,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notification_devices (user_id, kind, endpoint, p256dh, auth, user_agent)
		VALUES ($1, 'webpush', $2, $3, $4, $5)
		ON CONFLICT (kind, endpoint) DO UPDATE SET
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth,
			user_agent = EXCLUDED.user_agent,
			last_used_at = NOW()
		WHERE notification_devices.user_id = EXCLUDED.user_id
		RETURNING id, created_at, last_used_at`,
		userID, d.Endpoint, d.P256DH, d.Auth, userAgent,
	).Scan(&d.ID, &d.CreatedAt, &d.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Device{}, ErrDeviceConflict
	}
	if err != nil {
		return Device{}, errors.Join(ErrStorageFailed, err)
	}
	return d, nil
}

func (r *PGRegistry) Touch(ctx context.Context, userID int64, endpoint, userAgent string) error {
	if userID <= 0 {
		return ErrInvalidUser
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_devices (user_id, kind, endpoint, user_agent)
		VALUES ($1, 'webpush', $2, $3)
		ON CONFLICT (kind, endpoint) DO UPDATE SET
			user_agent = EXCLUDED.user_agent,
			last_used_at = NOW()
		WHERE notification_devices.user_id = EXCLUDED.user_id`,
		userID, endpoint, userAgent)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (r *PGRegistry) List(ctx context.Context, userID int64, kind Kind) ([]Device, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, kind, endpoint, COALESCE(p256dh, ''), COALESCE(auth, ''),
			COALESCE(user_agent, ''), created_at, last_used_at
		FROM notification_devices
		WHERE user_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY last_used_at DESC, id DESC`, userID, string(kind))
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Device, error) {
		var (
			d Device
			k string
		)
		err := row.Scan(&d.ID, &d.UserID, &k, &d.Endpoint, &d.P256DH, &d.Auth, &d.UserAgent, &d.CreatedAt, &d.LastUsedAt)
		d.Kind = Kind(k)
		return d, err
	})
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return out, nil
}

func (r *PGRegistry) Remove(ctx context.Context, userID int64, endpoint string) error {
	return r.exec(ctx, `DELETE FROM notification_devices WHERE user_id = $1 AND endpoint = $2`, userID, endpoint)
}

func (r *PGRegistry) RemoveKind(ctx context.Context, userID int64, kind Kind) error {
	return r.exec(ctx, `DELETE FROM notification_devices WHERE user_id = $1 AND kind = $2`, userID, string(kind))
}

func (r *PGRegistry) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM notification_devices WHERE id = $1`, id)
}

func (r *PGRegistry) exec(ctx context.Context, sql string, args ...any) error {
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}
