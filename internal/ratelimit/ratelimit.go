// Package ratelimit throttles sign-in attempts with a fixed-window
// counter in Redis. When disabled it hands out a limiter that always
// allows, so callers never branch on configuration.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter records attempts and reports whether a key is still within
// its window allowance.
type Limiter interface {
	// Allow counts one attempt for key and reports whether the key is
	// still under the limit for the current window.
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// Config controls the Redis-backed limiter.
type Config struct {
	Enabled     bool
	RedisURL    string
	MaxAttempts int
	Window      time.Duration
}

const (
	defaultMaxAttempts = 10
	defaultWindow      = time.Minute
)

// New connects to Redis and returns a window limiter. A disabled config
// returns Noop without touching the network.
func New(cfg Config, logger *slog.Logger) (Limiter, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	max := cfg.MaxAttempts
	if max <= 0 {
		max = defaultMaxAttempts
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}

	logger.Info("rate limiting enabled", "max_attempts", max, "window", window)
	return &redisLimiter{client: client, max: int64(max), window: window, logger: logger}, nil
}

type redisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	logger *slog.Logger
}

// Allow increments the key's counter and refreshes its expiry in one
// pipeline, so the window restarts from the most recent attempt.
func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, "ratelimit:"+key)
	pipe.Expire(ctx, "ratelimit:"+key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count attempt: %w", err)
	}

	count := incr.Val()
	if count > l.max {
		l.logger.Warn("rate limit exceeded", "key", key, "attempts", count)
		return false, nil
	}
	return true, nil
}

func (l *redisLimiter) Close() error {
	return l.client.Close()
}

// Noop allows every attempt.
type Noop struct{}

// Allow always reports the attempt as allowed.
func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

// Close is a no-op.
func (Noop) Close() error { return nil }

// LoginKey builds the counter key for a sign-in attempt from the client
// address and the submitted email. The port is dropped so retries from
// one host share a counter, and the email is folded so casing cannot
// dodge the limit.
func LoginKey(remoteAddr, email string) string {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	return "login:" + host + ":" + strings.ToLower(strings.TrimSpace(email))
}
