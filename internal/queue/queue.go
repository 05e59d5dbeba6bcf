package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stockpoller/internal/config"
	"stockpoller/internal/model"
	"stockpoller/internal/retry"
)

// Sender delivers validated quotes to the configured queue backend.
type Sender interface {
	// Send publishes one quote. It returns a *PublishError once the
	// sender's internal retries are exhausted.
	Send(ctx context.Context, q model.Quote) error
	// HealthCheck reports current connection liveness without side effects
	// on delivery state.
	HealthCheck(ctx context.Context) bool
	// Close releases the connection. Calling it more than once is safe.
	Close() error
}

// ErrUnsupportedQueueType is returned at construction for a queue type
// that is neither rabbitmq nor sqs.
var ErrUnsupportedQueueType = errors.New("unsupported queue type")

// ErrMissingConfiguration is returned at construction when a required
// setting for the selected backend is absent.
var ErrMissingConfiguration = errors.New("missing queue configuration")

// PublishError reports a delivery failure after the sender exhausted its
// retries.
type PublishError struct {
	Queue string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s failed: %v", e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publish and connection attempts share the same shape: up to 3 tries
// with exponential backoff. Connection retries are a separate policy
// instance from send retries so the two never couple.
func backoffPolicy() retry.Policy {
	return retry.Policy{
		Kind:        retry.Exponential,
		MaxAttempts: 3,
		Delay:       time.Second,
		Factor:      2,
	}
}

// New constructs the sender variant selected by cfg.Type. The variant is
// fixed for the life of the process.
func New(ctx context.Context, cfg config.QueueConfig, logger *slog.Logger) (Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Type) {
	case "rabbitmq":
		return newRabbitMQSender(ctx, cfg.RabbitMQ, logger)
	case "sqs":
		return newSQSSender(ctx, cfg.SQS, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQueueType, cfg.Type)
	}
}
