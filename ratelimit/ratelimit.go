// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package ratelimit enforces each plugin's declared requests-per-minute
// budget. Enforcement is opt-in; a nil Limiter means unlimited.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"opsbridge/platform/connectors/base"
)

// Limiter consumes one request from the plugin budget. It returns an error
// wrapping base.ErrRateLimited when the budget is exhausted.
type Limiter interface {
	Allow(ctx context.Context, plugin string, policy base.RateLimiting) error
}

// MemoryLimiter is a per-process token bucket per plugin
type MemoryLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
}

type bucket struct {
	policy  base.RateLimiting
	limiter *rate.Limiter
}

// NewMemoryLimiter creates an empty limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*bucket)}
}

// Allow refills at RequestsPerMinute and holds at most BurstSize tokens. A
// changed policy resets the bucket. Non-positive RequestsPerMinute disables
// the limit.
func (m *MemoryLimiter) Allow(_ context.Context, plugin string, policy base.RateLimiting) error {
	if policy.RequestsPerMinute <= 0 {
		return nil
	}

	key := strings.ToLower(plugin)

	m.mu.Lock()
	b, ok := m.buckets[key]
	if !ok || b.policy != policy {
		burst := policy.BurstSize
		if burst <= 0 {
			burst = 1
		}
		b = &bucket{
			policy:  policy,
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(policy.RequestsPerMinute)), burst),
		}
		m.buckets[key] = b
	}
	m.mu.Unlock()

	if !b.limiter.Allow() {
		return fmt.Errorf("%w: %s allows %d requests/minute (burst %d)",
			base.ErrRateLimited, key, policy.RequestsPerMinute, policy.BurstSize)
	}
	return nil
}
