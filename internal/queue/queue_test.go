package queue

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"stockpoller/internal/config"
)

func TestNew_UnsupportedQueueType(t *testing.T) {
	for _, queueType := range []string{"kafka", ""} {
		t.Run("type "+queueType, func(t *testing.T) {
			_, err := New(context.Background(), config.QueueConfig{Type: queueType}, nil)
			if !errors.Is(err, ErrUnsupportedQueueType) {
				t.Errorf("err = %v, want ErrUnsupportedQueueType", err)
			}
		})
	}
}

func TestNew_SQSMissingURL(t *testing.T) {
	cfg := config.QueueConfig{Type: "sqs"}

	_, err := New(context.Background(), cfg, slog.Default())
	if !errors.Is(err, ErrMissingConfiguration) {
		t.Errorf("err = %v, want ErrMissingConfiguration before any network call", err)
	}
}

func TestNew_RabbitMQMissingHost(t *testing.T) {
	cfg := config.QueueConfig{Type: "rabbitmq"}

	_, err := New(context.Background(), cfg, slog.Default())
	if !errors.Is(err, ErrMissingConfiguration) {
		t.Errorf("err = %v, want ErrMissingConfiguration", err)
	}
}

func TestPublishError_Unwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	err := &PublishError{Queue: "rabbitmq", Err: underlying}

	if !errors.Is(err, underlying) {
		t.Error("PublishError does not unwrap to the underlying error")
	}
}
