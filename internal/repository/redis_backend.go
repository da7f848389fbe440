package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/infrastructure/redis"
	"github.com/yourorg/tasklist/internal/reliability/retry"
)

const redisKeyPrefix = "items:"

// RedisBackend implements domain.Backend on Redis. Each tenant scope is one
// JSON blob holding the whole collection, rewritten on every mutation.
type RedisBackend struct {
	redis  *redis.Client
	logger *slog.Logger
	retry  *retry.Config
}

// NewRedisBackend creates a Redis-backed item store.
func NewRedisBackend(redisClient *redis.Client, logger *slog.Logger) *RedisBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBackend{
		redis:  redisClient,
		logger: logger,
		retry:  retry.DefaultConfig(),
	}
}

// Read loads the collection for a scope. A missing key is an empty scope.
func (b *RedisBackend) Read(ctx context.Context, scope string) ([]domain.Item, error) {
	data, err := retry.Do(ctx, b.retry, b.logger, "redis read", func(ctx context.Context) ([]byte, error) {
		return b.redis.GetBytes(ctx, redisKeyPrefix+scope)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read scope %s: %w", scope, err)
	}
	if data == nil {
		return nil, nil
	}

	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scope %s: %w", scope, err)
	}
	return items, nil
}

// Write replaces the collection for a scope. Whole-collection writes are
// idempotent, so retrying after a transient failure is safe.
func (b *RedisBackend) Write(ctx context.Context, scope string, items []domain.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal scope %s: %w", scope, err)
	}

	_, err = retry.Do(ctx, b.retry, b.logger, "redis write", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.redis.Set(ctx, redisKeyPrefix+scope, data, 0)
	})
	if err != nil {
		return fmt.Errorf("failed to write scope %s: %w", scope, err)
	}

	b.logger.Debug("scope persisted", slog.String("scope", scope), slog.Int("items", len(items)))
	return nil
}

// Ping checks Redis connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.redis.Ping(ctx)
}

// Scopes enumerates tenant scopes that hold a collection.
func (b *RedisBackend) Scopes(ctx context.Context) ([]string, error) {
	keys, err := b.redis.Keys(ctx, redisKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	scopes := make([]string, 0, len(keys))
	for _, k := range keys {
		scopes = append(scopes, strings.TrimPrefix(k, redisKeyPrefix))
	}
	return scopes, nil
}
