package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/richxcame/fleet-analytics/pkg/logger"
	redisclient "github.com/richxcame/fleet-analytics/pkg/redis"
	"github.com/richxcame/fleet-analytics/pkg/tracing"
	"go.uber.org/zap"
)

const tracerName = "fleet-analytics/cache"

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Manager handles caching operations with JSON serialization
type Manager struct {
	redis redisclient.ClientInterface
}

// NewManager creates a new cache manager
func NewManager(redis redisclient.ClientInterface) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	var data string
	err := tracing.TraceRedisCommand(ctx, tracerName, "get", key, func() error {
		var err error
		data, err = m.redis.GetString(ctx, key)
		return err
	})
	if errors.Is(err, redisclient.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return tracing.TraceRedisCommand(ctx, tracerName, "set", key, func() error {
		return m.redis.SetWithExpiration(ctx, key, string(data), ttl)
	})
}

// GetOrSet fills result from the cache, or computes it with fn and stores it.
// Cache failures never fail the call: the computed value is always returned.
func (m *Manager) GetOrSet(ctx context.Context, key string, ttl time.Duration, result interface{}, fn func() (interface{}, error)) error {
	err := m.Get(ctx, key, result)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrMiss) {
		logger.WarnContext(ctx, "cache read failed", zap.String("key", key), zap.Error(err))
	}

	data, err := fn()
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal computed value: %w", err)
	}

	if err := tracing.TraceRedisCommand(ctx, tracerName, "set", key, func() error {
		return m.redis.SetWithExpiration(ctx, key, string(jsonData), ttl)
	}); err != nil {
		logger.WarnContext(ctx, "failed to cache value", zap.String("key", key), zap.Error(err))
	}

	return json.Unmarshal(jsonData, result)
}

// Delete removes keys from cache
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	return m.redis.Delete(ctx, keys...)
}

// Invalidate removes every key under prefix, used after writes to the backend.
func (m *Manager) Invalidate(ctx context.Context, prefix string) error {
	n, err := m.redis.DeleteByPrefix(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", prefix, err)
	}
	logger.DebugContext(ctx, "cache invalidated", zap.String("prefix", prefix), zap.Int("keys", n))
	return nil
}

// CacheKeys defines cache key patterns
type CacheKeys struct{}

var Keys = CacheKeys{}

// AnalyticsPrefix is shared by every computed view.
const AnalyticsPrefix = "analytics:"

// Analytics returns cache key for a computed view
func (k CacheKeys) Analytics(view string, params ...string) string {
	parts := append([]string{strings.TrimSuffix(AnalyticsPrefix, ":"), view}, params...)
	for i, p := range parts {
		if p == "" {
			parts[i] = "-"
		}
	}
	return strings.Join(parts, ":")
}

