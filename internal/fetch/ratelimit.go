// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"sync"
	"time"
)

// tokenBucket is a simple per-host token bucket: Capacity tokens are
// available per Window, refilled continuously at Capacity/Window.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	last       time.Time
}

func newTokenBucket(requestsPerWindow int, windowSeconds int) *tokenBucket {
	if requestsPerWindow <= 0 {
		requestsPerWindow = 1
	}
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	return &tokenBucket{
		capacity:   float64(requestsPerWindow),
		refillRate: float64(requestsPerWindow) / float64(windowSeconds),
		tokens:     float64(requestsPerWindow),
		last:       time.Now(),
	}
}

func (b *tokenBucket) wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(b.last).Seconds()
		b.tokens = minF(b.capacity, b.tokens+elapsed*b.refillRate)
		b.last = now

		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}

		deficit := 1 - b.tokens
		wait := time.Duration(deficit/b.refillRate*1000) * time.Millisecond
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// hostLimiters holds one tokenBucket per host, created lazily with an
// unthrottled default (60 req/s) until a source calls SetHostLimit.
type hostLimiters struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

func newHostLimiters() *hostLimiters {
	return &hostLimiters{buckets: make(map[string]*tokenBucket)}
}

func (h *hostLimiters) set(host string, requestsPerWindow, windowSeconds int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buckets[host] = newTokenBucket(requestsPerWindow, windowSeconds)
}

func (h *hostLimiters) wait(ctx context.Context, host string) error {
	h.mu.Lock()
	b, ok := h.buckets[host]
	if !ok {
		b = newTokenBucket(60, 1)
		h.buckets[host] = b
	}
	h.mu.Unlock()
	return b.wait(ctx)
}
