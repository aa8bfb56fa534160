package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout. Recent files live in one sorted set scored by open time,
// with display names in a companion hash; quick-save targets are plain keys
// with server-side expiry.
const (
	redisRecentKey  = "canvasnote:recent"
	redisNamesKey   = "canvasnote:recent:names"
	redisSavedKeyFn = "canvasnote:saved:%s"
)

// RedisConfig configures the redis session backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps session state in redis, shared across server instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

// Recent returns up to limit entries, most recently opened first.
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]RecentEntry, error) {
	if limit <= 0 {
		limit = MaxRecent
	}
	members, err := s.client.ZRevRangeWithScores(ctx, redisRecentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent list: %w", err)
	}

	entries := make([]RecentEntry, 0, len(members))
	for _, m := range members {
		path, _ := m.Member.(string)
		if path == "" {
			continue
		}
		name, err := s.client.HGet(ctx, redisNamesKey, path).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("read recent name: %w", err)
		}
		entries = append(entries, RecentEntry{
			Path:     path,
			Name:     name,
			OpenedAt: time.Unix(int64(m.Score), 0),
		})
	}
	return entries, nil
}

// Touch inserts or refreshes an entry and trims the list to MaxRecent.
func (s *RedisStore) Touch(ctx context.Context, entry RecentEntry) error {
	openedAt := entry.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, redisRecentKey, redis.Z{Score: float64(openedAt.Unix()), Member: entry.Path})
	pipe.HSet(ctx, redisNamesKey, entry.Path, entry.Name)
	pipe.ZRemRangeByRank(ctx, redisRecentKey, 0, int64(-(MaxRecent + 1)))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("touch recent entry: %w", err)
	}
	return nil
}

// SavedFile retrieves the quick-save target for a document.
func (s *RedisStore) SavedFile(ctx context.Context, documentID string) (*SavedFileInfo, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(redisSavedKeyFn, documentID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read saved-file info: %w", err)
	}

	var info SavedFileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// Corrupt entry: treat as absent.
		return nil, nil
	}
	return &info, nil
}

// SetSavedFile records the quick-save target with server-side expiry.
func (s *RedisStore) SetSavedFile(ctx context.Context, info SavedFileInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal saved-file info: %w", err)
	}
	key := fmt.Sprintf(redisSavedKeyFn, info.DocumentID)
	if err := s.client.Set(ctx, key, data, DefaultSavedTTL).Err(); err != nil {
		return fmt.Errorf("write saved-file info: %w", err)
	}
	return nil
}

// Cleanup is a no-op: quick-save keys expire server-side and the recent list
// is trimmed on every Touch.
func (s *RedisStore) Cleanup(ctx context.Context) error { return nil }

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
