package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"stockpoller/internal/config"
	"stockpoller/internal/model"
	"stockpoller/internal/retry"
)

// amqpChannel is the slice of *amqp.Channel used by the sender, split out
// so tests can substitute a fake.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// rabbitMQSender publishes quotes to a durable direct exchange. The
// connection and channel are opened once at construction and reused for
// every send.
type rabbitMQSender struct {
	cfg    config.RabbitMQConfig
	logger *slog.Logger

	conn    *amqp.Connection
	channel amqpChannel

	closeMu sync.Mutex
	closed  bool
}

func newRabbitMQSender(ctx context.Context, cfg config.RabbitMQConfig, logger *slog.Logger) (*rabbitMQSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: rabbitmq host is required", ErrMissingConfiguration)
	}

	amqpURL := fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		url.QueryEscape(cfg.VHost),
	)

	// Connection-level retry policy, distinct from send retries.
	conn, err := retry.Do(ctx, logger, "rabbitmq connect", backoffPolicy(), func() (*amqp.Connection, error) {
		return amqp.Dial(amqpURL)
	})
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}

	logger.Info("connected to rabbitmq",
		"host", cfg.Host,
		"port", cfg.Port,
		"vhost", cfg.VHost,
		"exchange", cfg.Exchange,
	)

	return &rabbitMQSender{
		cfg:     cfg,
		logger:  logger,
		conn:    conn,
		channel: channel,
	}, nil
}

func (s *rabbitMQSender) Send(ctx context.Context, q model.Quote) error {
	body, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	_, err = retry.Do(ctx, s.logger, "rabbitmq publish", backoffPolicy(), func() (struct{}, error) {
		return struct{}{}, s.channel.PublishWithContext(ctx,
			s.cfg.Exchange,
			s.cfg.RoutingKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    uuid.NewString(),
				Timestamp:    time.Now().UTC(),
				Body:         body,
			})
	})
	if err != nil {
		return &PublishError{Queue: "rabbitmq", Err: err}
	}

	s.logger.Debug("published quote",
		"queue", "rabbitmq",
		"exchange", s.cfg.Exchange,
		"routing_key", s.cfg.RoutingKey,
		"symbol", q.Symbol,
	)
	return nil
}

func (s *rabbitMQSender) HealthCheck(ctx context.Context) bool {
	return s.conn != nil && !s.conn.IsClosed()
}

func (s *rabbitMQSender) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil && !s.conn.IsClosed() {
		if err := s.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}

	s.logger.Info("rabbitmq connection closed")
	return nil
}
