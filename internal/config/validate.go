package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Poller.Source == "" {
		return errors.New("poller.source is required")
	}
	if len(c.Poller.Symbols) == 0 {
		return errors.New("poller.symbols is required")
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be positive, got %v", c.Poller.Interval)
	}

	if c.Sources.DefaultRateLimit < 1 {
		return fmt.Errorf("sources.default_rate_limit must be >= 1, got %d", c.Sources.DefaultRateLimit)
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", c.HTTP.Timeout)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay must be >= 0, got %v", c.Retry.Delay)
	}
	switch c.Retry.Backoff {
	case "fixed", "exponential":
	default:
		return fmt.Errorf("retry.backoff must be \"fixed\" or \"exponential\", got %q", c.Retry.Backoff)
	}
	if c.Retry.Backoff == "exponential" && c.Retry.Factor < 1 {
		return fmt.Errorf("retry.factor must be >= 1, got %v", c.Retry.Factor)
	}

	if c.Queue.Type == "" {
		return errors.New("queue.type is required")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}
