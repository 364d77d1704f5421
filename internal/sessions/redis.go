package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyRevoked = "recipehub:session:revoked:"

// RedisRevoker shares the denylist across server replicas. Keys expire with
// the token they deny.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker parses a redis:// URL and pings the server.
func NewRedisRevoker(ctx context.Context, url string) (*RedisRevoker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("sessions: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sessions: redis ping: %w", err)
	}
	return &RedisRevoker{client: client}, nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, keyRevoked+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("sessions: revoke: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, keyRevoked+jti).Result()
	if err != nil {
		return false, fmt.Errorf("sessions: lookup: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRevoker) Close() error {
	return r.client.Close()
}
