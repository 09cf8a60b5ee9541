package preferences

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisVersions keeps per-user cache versions in Redis.
type RedisVersions struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisVersions stores counters under prefix. Counters expire after ttl
// of inactivity; ttl must exceed the local cache TTL so an expired counter
// can never revive an entry stored under its old value.
func NewRedisVersions(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisVersions {
	if prefix == "" {
		prefix = "notifyhub:prefs:v:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisVersions{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisVersions) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

func (r *RedisVersions) Version(ctx context.Context, userID int64) (int64, error) {
	v, err := r.client.Get(ctx, r.key(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *RedisVersions) Bump(ctx context.Context, userID int64) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, r.key(userID))
		p.Expire(ctx, r.key(userID), r.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
