package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Kind selects how the delay between attempts grows.
type Kind string

const (
	// Fixed waits the same delay between every attempt.
	Fixed Kind = "fixed"
	// Exponential multiplies the delay by Factor after each failed attempt.
	Exponential Kind = "exponential"
)

// Policy describes a retry strategy. The zero value is not valid; call
// Validate before use.
type Policy struct {
	Kind        Kind
	MaxAttempts int
	Delay       time.Duration
	Factor      float64 // growth factor, exponential only
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	switch p.Kind {
	case Fixed, Exponential:
	default:
		return fmt.Errorf("retry kind must be %q or %q, got %q", Fixed, Exponential, p.Kind)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("retry delay must be >= 0, got %v", p.Delay)
	}
	if p.Kind == Exponential && p.Factor < 1 {
		return fmt.Errorf("retry factor must be >= 1 for exponential backoff, got %v", p.Factor)
	}
	return nil
}

// backoff returns the delay before the next attempt. attempt is 1-based.
func (p Policy) backoff(attempt int) time.Duration {
	if p.Kind == Exponential {
		return time.Duration(float64(p.Delay) * math.Pow(p.Factor, float64(attempt-1)))
	}
	return p.Delay
}

// Do runs op up to p.MaxAttempts times, sleeping per the policy between
// failed attempts. Each failure is logged with its attempt number. After
// exhaustion the last error is returned, wrapped; it is never swallowed.
func Do[T any](ctx context.Context, logger *slog.Logger, label string, p Policy, op func() (T, error)) (T, error) {
	var zero T

	if logger == nil {
		logger = slog.Default()
	}
	if err := p.Validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		logger.Warn("attempt failed",
			"label", label,
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"error", err,
		)

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.backoff(attempt)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}
