package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"authflow/internal/config"
	"authflow/internal/logging"
)

const redisKeyPrefix = "authflow:ratelimit:"

type redisLimiter struct {
	client  *redis.Client
	log     logging.Logger
	timeout time.Duration
}

// NewRedis connects to Redis and fails if it does not answer a ping. Once
// running, Redis errors let requests through.
func NewRedis(ctx context.Context, cfg config.RedisConfig, log logging.Logger) (Limiter, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &redisLimiter{client: client, log: log, timeout: 250 * time.Millisecond}, nil
}

func (l *redisLimiter) Allow(key string, limit int, win time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if win <= 0 {
		win = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	k := redisKeyPrefix + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		l.log.Error(ctx, "redis rate limiter error", "op", "incr", "error", err)
		return Decision{Allowed: true}
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, win).Err(); err != nil {
			l.log.Error(ctx, "redis rate limiter error", "op", "expire", "error", err)
		}
	}
	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil || ttl <= 0 {
		ttl = win
	}
	return Decision{
		Allowed:   int(count) <= limit,
		Count:     int(count),
		WindowEnd: time.Now().Add(ttl),
	}
}

func (l *redisLimiter) Close() {
	_ = l.client.Close()
}
