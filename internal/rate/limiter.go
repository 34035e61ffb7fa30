package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the login gate tuning. A zero MaxAttempts disables the gate.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

// Limiter is a fixed-window attempt counter keyed by caller address. Every
// login attempt counts, successful or not.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "arl"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Allow records one attempt from ip and returns ErrRateLimited once the
// window budget is spent. An empty ip is not tracked.
func (l *Limiter) Allow(ctx context.Context, ip string) error {
	if l == nil || l.config.MaxAttempts <= 0 || ip == "" {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.key(ip), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) key(ip string) string {
	return l.config.Prefix + ":ip:" + ip
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: TTL is set on the first hit only.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
