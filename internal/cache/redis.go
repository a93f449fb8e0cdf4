package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time check that both backends satisfy Cache.
var (
	_ Cache = (*Memory)(nil)
	_ Cache = (*Redis)(nil)
)

// Redis is the go-redis backed cache.
type Redis struct {
	client *redis.Client
}

// RedisOptions holds the connection settings for the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis creates a Redis cache. The connection is lazy; call Ping to
// verify reachability at startup.
func NewRedis(opts RedisOptions) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
