package exclusion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/tradelens/pkg/redis"
)

// RedisStore keeps records under <prefix>:exclusions:<key>, without expiry
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a redis-backed store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:exclusions:%s", s.prefix, key)
}

// Get reads the record for key
func (s *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	data, err := s.client.Redis().Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("redis get %s: %w", s.key(key), err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", s.key(key), err)
	}
	return rec, nil
}

// Put stores the record
func (s *RedisStore) Put(ctx context.Context, key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.Redis().Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(key), err)
	}
	return nil
}

// Delete removes the record
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := s.client.Redis().Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", s.key(key), err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
