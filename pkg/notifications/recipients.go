package notifications

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recipient is where a user's email notifications go.
type Recipient struct {
	UserID  int64
	Email   string
	Name    string
	IsAdmin bool
}

// Directory resolves users to email recipients and lists administrators.
// It mirrors account data owned by another system.
type Directory interface {
	Recipient(ctx context.Context, userID int64) (Recipient, error)
	AdminIDs(ctx context.Context) ([]int64, error)
	Upsert(ctx context.Context, r Recipient) error
}

// PGDirectory reads notification_recipients.
type PGDirectory struct {
	pool *pgxpool.Pool
}

func NewPGDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

func (d *PGDirectory) Recipient(ctx context.Context, userID int64) (Recipient, error) {
	r := Recipient{UserID: userID}
	err := d.pool.QueryRow(ctx,
		`SELECT email, name, is_admin FROM notification_recipients WHERE user_id = $1`, userID,
	).Scan(&r.Email, &r.Name, &r.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return Recipient{}, ErrRecipientNotFound
	}
	if err != nil {
		return Recipient{}, errors.Join(ErrStorageFailed, err)
	}
	return r, nil
}

func (d *PGDirectory) AdminIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT user_id FROM notification_recipients WHERE is_admin ORDER BY user_id`)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return ids, nil
}

func (d *PGDirectory) Upsert(ctx context.Context, r Recipient) error {
	if r.UserID <= 0 {
		return ErrInvalidUser
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO notification_recipients (user_id, email, name, is_admin, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			is_admin = EXCLUDED.is_admin,
			updated_at = NOW()`,
		r.UserID, r.Email, r.Name, r.IsAdmin)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu   sync.RWMutex
	byID map[int64]Recipient
}

func NewMemoryDirectory(recipients ...Recipient) *MemoryDirectory {
	d := &MemoryDirectory{byID: make(map[int64]Recipient)}
	for _, r := range recipients {
		d.byID[r.UserID] = r
	}
	return d
}

func (d *MemoryDirectory) Recipient(_ context.Context, userID int64) (Recipient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byID[userID]
	if !ok {
		return Recipient{}, ErrRecipientNotFound
	}
	return r, nil
}

func (d *MemoryDirectory) AdminIDs(context.Context) ([]int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var ids []int64
	for id, r := range d.byID {
		if r.IsAdmin {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *MemoryDirectory) Upsert(_ context.Context, r Recipient) error {
	if r.UserID <= 0 {
		return ErrInvalidUser
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[r.UserID] = r
	return nil
}
