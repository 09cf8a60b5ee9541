package preferences

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// PGStorage stores preferences in notification_preferences and
// notification_type_prefs.
type PGStorage struct {
	pool *pgxpool.Pool
}

func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

func (s *PGStorage) GetGlobal(ctx context.Context, userID int64) (Global, error) {
	var (
		g    Global
		cats map[string]bool
	)
	err := s.pool.QueryRow(ctx, `
		SELECT allow_in_app, allow_email, allow_push, categories
		FROM notification_preferences
		WHERE user_id = $1`, userID,
	).Scan(&g.AllowInApp, &g.AllowEmail, &g.AllowPush, &cats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Global{}, ErrNotFound
		}
		return Global{}, errors.Join(ErrStorageFailed, err)
	}

	g.Categories = make(map[catalog.Category]bool, len(cats))
	for k, v := range cats {
		g.Categories[catalog.Category(k)] = v
	}
	return g, nil
}

func (s *PGStorage) SaveGlobal(ctx context.Context, userID int64, g Global) error {
	cats := make(map[string]bool, len(g.Categories))
	for k, v := range g.Categories {
		cats[string(k)] = v
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, allow_in_app, allow_email, allow_push, categories, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			allow_in_app = EXCLUDED.allow_in_app,
			allow_email  = EXCLUDED.allow_email,
			allow_push   = EXCLUDED.allow_push,
			categories   = EXCLUDED.categories,
			updated_at   = NOW()`,
		userID, g.AllowInApp, g.AllowEmail, g.AllowPush, cats,
	)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (s *PGStorage) GetOverride(ctx context.Context, userID int64, typ string) (TypeOverride, error) {
	var o TypeOverride
	err := s.pool.QueryRow(ctx, `
		SELECT allow_web, allow_email, allow_push, mute_until
		FROM notification_type_prefs
		WHERE user_id = $1 AND notif_type = $2`, userID, typ,
	).Scan(&o.AllowWeb, &o.AllowEmail, &o.AllowPush, &o.MuteUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TypeOverride{}, ErrNotFound
		}
		return TypeOverride{}, errors.Join(ErrStorageFailed, err)
	}
	return o, nil
}

func (s *PGStorage) SaveOverride(ctx context.Context, userID int64, typ string, o TypeOverride) error {
	var mute *time.Time
	if o.MuteUntil != nil {
		t := o.MuteUntil.UTC()
		mute = &t
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_type_prefs (user_id, notif_type, allow_web, allow_email, allow_push, mute_until, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, notif_type) DO UPDATE SET
			allow_web   = EXCLUDED.allow_web,
			allow_email = EXCLUDED.allow_email,
			allow_push  = EXCLUDED.allow_push,
			mute_until  = EXCLUDED.mute_until,
			updated_at  = NOW()`,
		userID, typ, o.AllowWeb, o.AllowEmail, o.AllowPush, mute,
	)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}
