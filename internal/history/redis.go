package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/weftlabs/weft/internal/config"
)

// RedisStore persists runs in Redis: one JSON value per run plus an
// index list of run IDs, newest first, trimmed to the retention limit
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int
}

// NewRedisStore creates a Redis-backed store from configuration
func NewRedisStore(cfg *config.Config) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}),
		prefix: cfg.RedisPrefix,
		limit:  cfg.HistoryLimit,
	}
}

// NewRedisStoreWithClient wraps an existing client, used by tests
func NewRedisStoreWithClient(
	client *redis.Client, prefix string, limit int,
) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		limit:  limit,
	}
}

func (s *RedisStore) Record(ctx context.Context, run *Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return err
	}

	if err := s.client.Set(
		ctx, s.runKey(run.ID), payload, 0,
	).Err(); err != nil {
		return err
	}
	if err := s.client.LPush(ctx, s.indexKey(), run.ID).Err(); err != nil {
		return err
	}

	evicted, err := s.client.LRange(
		ctx, s.indexKey(), int64(s.limit), -1,
	).Result()
	if err != nil {
		return err
	}
	for _, id := range evicted {
		if err := s.client.Del(ctx, s.runKey(id)).Err(); err != nil {
			return err
		}
	}
	return s.client.LTrim(ctx, s.indexKey(), 0, int64(s.limit)-1).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Run, error) {
	payload, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *RedisStore) Recent(
	ctx context.Context, limit int,
) ([]*Run, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	ids, err := s.client.LRange(
		ctx, s.indexKey(), 0, int64(limit)-1,
	).Result()
	if err != nil {
		return nil, err
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.Get(ctx, id)
		if errors.Is(err, ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Close releases the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) runKey(id string) string {
	return fmt.Sprintf("%s:run:%s", s.prefix, id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":runs"
}
