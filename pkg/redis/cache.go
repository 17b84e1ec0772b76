package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/tradelens/pkg/logger"
)

// Cache stores JSON-encoded analysis results with a TTL
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
	logger *logger.Logger
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// WithLogger sets where cache failures are reported
func (c *Cache) WithLogger(log *logger.Logger) *Cache {
	c.logger = log
	return c
}

func (c *Cache) log() *logger.Logger {
	return logger.OrNop(c.logger)
}

// Enabled reports whether results are actually cached
func (c *Cache) Enabled() bool {
	return c != nil && c.client.Enabled()
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// errUndecodable marks a stored entry that no longer fits its destination type
var errUndecodable = errors.New("cache entry does not decode")

// Get decodes a cached value into dest; found is false on a miss
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("%w: %w", errUndecodable, err)
	}
	return true, nil
}

// Set stores a value with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// GetOrSet fills dest from the cache, or from fn on a miss (storing the result).
// dest must point to the type fn returns. Cache read/write failures fall through
// to fn and are logged; an entry that no longer decodes is deleted.
// hit reports whether dest came from the cache; only fn's error is returned.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) (hit bool, err error) {
	found, err := c.Get(ctx, key, dest)
	switch {
	case found:
		return true, nil
	case errors.Is(err, errUndecodable):
		c.log().WithError(err).WithField("key", key).Warn("Dropping undecodable cache entry")
		if err := c.Delete(ctx, key); err != nil {
			c.log().WithError(err).WithField("key", key).Warn("Cache delete failed")
		}
	case err != nil:
		c.log().WithError(err).WithField("key", key).Warn("Cache read failed")
	}

	value, err := fn()
	if err != nil {
		return false, err
	}
	if err := assign(dest, value); err != nil {
		return false, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		c.log().WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return false, nil
}

// assign stores value in *dest without a JSON round trip
func assign(dest, value interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("cache: dest must be a non-nil pointer, got %T", dest)
	}
	target := dv.Elem()
	vv := reflect.ValueOf(value)
	if !vv.IsValid() {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	if !vv.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("cache: cannot assign %T to %s", value, target.Type())
	}
	target.Set(vv)
	return nil
}

// DefaultTTL is how long an analysis result stays cached when no TTL is configured
const DefaultTTL = 10 * time.Minute

// ResultKey builds the key of a cached analysis result:
// result:<operation>:<part>:<part>...
func ResultKey(operation string, parts ...string) string {
	return "result:" + operation + ":" + strings.Join(parts, ":")
}
