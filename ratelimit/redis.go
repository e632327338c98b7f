// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/shared/logger"
)

const keyPrefix = "opsbridge:ratelimit:"

// RedisLimiter is a sliding one-minute window shared by every process using
// the same Redis. Redis failures let the request through.
type RedisLimiter struct {
	client *redis.Client
	logger *logger.Logger
	now    func() time.Time
}

// NewRedisLimiter wraps an existing client
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		logger: logger.New("ratelimit"),
		now:    time.Now,
	}
}

// NewRedisLimiterFromURL parses redisURL (redis://host:port/db) and checks
// the connection.
func NewRedisLimiterFromURL(ctx context.Context, redisURL string) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLimiter(client), nil
}

// Allow counts requests from the last minute and admits the call while the
// count is below RequestsPerMinute. Every call, admitted or not, is recorded.
func (l *RedisLimiter) Allow(ctx context.Context, plugin string, policy base.RateLimiting) error {
	if policy.RequestsPerMinute <= 0 {
		return nil
	}

	plugin = strings.ToLower(plugin)
	key := keyPrefix + plugin
	now := l.now()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("", "redis rate limit check failed, allowing request", map[string]interface{}{
			"plugin": plugin,
			"error":  err.Error(),
		})
		return nil
	}

	if count := card.Val(); count >= int64(policy.RequestsPerMinute) {
		return fmt.Errorf("%w: %s made %d requests in the last minute (limit %d)",
			base.ErrRateLimited, plugin, count, policy.RequestsPerMinute)
	}
	return nil
}

// Reset drops the recorded window of a plugin
func (l *RedisLimiter) Reset(ctx context.Context, plugin string) error {
	if err := l.client.Del(ctx, keyPrefix+strings.ToLower(plugin)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
