// Package stats computes the system totals shown on the admin dashboard and
// caches the latest snapshot in redis.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"launchkit/internal/models"
	"launchkit/internal/utils/logger"
)

const cacheKey = "stats:snapshot"

type Snapshot struct {
	Users               int64     `json:"users"`
	BannedUsers         int64     `json:"bannedUsers"`
	Organizations       int64     `json:"organizations"`
	Members             int64     `json:"members"`
	AuditEntries        int64     `json:"auditEntries"`
	AuditEntriesLast24h int64     `json:"auditEntriesLast24h"`
	GeneratedAt         time.Time `json:"generatedAt"`
}

// Cache stores the encoded snapshot. Get returns ErrCacheMiss when nothing is stored.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("stats: cache miss")

type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

type Service struct {
	db     *gorm.DB
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

func NewService(db *gorm.DB, cache Cache, ttl time.Duration) *Service {
	return &Service{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.New("STATS"),
	}
}

func (s *Service) count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

// Compute counts everything from the database.
func (s *Service) Compute(ctx context.Context) (*Snapshot, error) {
	now := s.now().UTC()
	snap := &Snapshot{GeneratedAt: now}

	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&snap.Users, &models.User{}, "", nil},
		{&snap.BannedUsers, &models.User{}, "banned = ? AND (ban_expires IS NULL OR ban_expires > ?)", []any{true, now}},
		{&snap.Organizations, &models.Organization{}, "", nil},
		{&snap.Members, &models.Member{}, "", nil},
		{&snap.AuditEntries, &models.AuditLog{}, "", nil},
		{&snap.AuditEntriesLast24h, &models.AuditLog{}, "created_at >= ?", []any{now.Add(-24 * time.Hour)}},
	}
	for _, c := range counts {
		n, err := s.count(ctx, c.model, c.where, c.args...)
		if err != nil {
			return nil, fmt.Errorf("stats: count: %w", err)
		}
		*c.dst = n
	}
	return snap, nil
}

// Refresh computes a snapshot and caches it.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cacheKey, data, s.ttl); err != nil {
		s.logger.Warn("failed to cache stats snapshot: %v", err)
	}
	return snap, nil
}

// Get serves the cached snapshot, computing a fresh one on a miss.
func (s *Service) Get(ctx context.Context) (*Snapshot, error) {
	data, err := s.cache.Get(ctx, cacheKey)
	if err == nil {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
		s.logger.Warn("discarding unreadable stats snapshot")
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("stats cache unavailable: %v", err)
	}
	return s.Refresh(ctx)
}
