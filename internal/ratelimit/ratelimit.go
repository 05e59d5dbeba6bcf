package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Limiter is a token-bucket rate limiter. Tokens accumulate at a fixed rate
// of capacity per window, up to capacity; each Acquire consumes exactly one.
//
// The wake time for a blocked caller is computed under the lock and the
// accruing token is reserved before the lock is released, so callers sleep
// without serializing behind each other while no two callers can ever
// consume the same token.
type Limiter struct {
	capacity float64
	window   time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// New creates a Limiter allowing capacity acquisitions per window.
func New(capacity int, window time.Duration, logger *slog.Logger) (*Limiter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("rate limiter capacity must be positive, got %d", capacity)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limiter window must be positive, got %v", window)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		capacity:   float64(capacity),
		window:     window,
		logger:     logger,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}, nil
}

// Acquire blocks until a token is available, then consumes it. The label
// identifies the caller in log output. It fails only when ctx is canceled
// before a token becomes available.
func (l *Limiter) Acquire(ctx context.Context, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	now := time.Now()
	if elapsed := now.Sub(l.lastRefill); elapsed > 0 {
		l.tokens += elapsed.Seconds() * l.capacity / l.window.Seconds()
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
		l.lastRefill = now
	}

	if l.tokens >= 1 {
		l.tokens--
		l.mu.Unlock()
		return nil
	}

	// Reserve the token that accrues while we sleep. lastRefill moves to
	// the wake instant, so a concurrent caller queues behind this one.
	wake := l.lastRefill.Add(time.Duration((1 - l.tokens) * float64(l.window) / l.capacity))
	l.tokens = 0
	l.lastRefill = wake
	l.mu.Unlock()

	wait := time.Until(wake)
	if wait <= 0 {
		return nil
	}

	l.logger.Debug("rate limit reached, waiting",
		"label", label,
		"wait", wait,
	)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		l.release()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// release returns a reserved token after a canceled wait.
func (l *Limiter) release() {
	l.mu.Lock()
	l.lastRefill = l.lastRefill.Add(-time.Duration(float64(l.window) / l.capacity))
	l.mu.Unlock()
}

// Tokens reports the current token balance. Intended for tests and
// diagnostics only.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens
}
