package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Name   string
	Window time.Duration // e.g., 15 minutes
	Max    int           // max attempts per window
}

// SlidingWindow counts attempts per identifier in a redis sorted set scored by time.
type SlidingWindow struct {
	redis  redis.Cmdable
	config Config
	now    func() time.Time
}

func NewSlidingWindow(client redis.Cmdable, config Config) *SlidingWindow {
	return &SlidingWindow{
		redis:  client,
		config: config,
		now:    time.Now,
	}
}

func (l *SlidingWindow) key(identifier string) string {
	return fmt.Sprintf("rate_limit:%s:%s", l.config.Name, identifier)
}

// Allow records an attempt and reports whether it is within the limit.
func (l *SlidingWindow) Allow(ctx context.Context, identifier string) (bool, error) {
	key := l.key(identifier)

	pipe := l.redis.Pipeline()
	now := l.now().UnixNano()
	windowStart := now - l.config.Window.Nanoseconds()

	// Remove old entries
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// Count current window
	pipe.ZCard(ctx, key)

	// Add new entry; nanosecond members keep concurrent attempts distinct
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})

	// Set expiration
	pipe.Expire(ctx, key, l.config.Window*2)

	results, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	count := results[1].(*redis.IntCmd).Val()
	return count < int64(l.config.Max), nil
}

// Reset clears the attempts recorded for identifier.
func (l *SlidingWindow) Reset(ctx context.Context, identifier string) error {
	return l.redis.Del(ctx, l.key(identifier)).Err()
}
