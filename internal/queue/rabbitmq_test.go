package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"stockpoller/internal/config"
	"stockpoller/internal/model"
)

type fakeChannel struct {
	publishCalls int
	failFirst    int
	lastMsg      amqp.Publishing
	lastExchange string
	lastKey      string
	closed       int
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.publishCalls++
	f.lastExchange = exchange
	f.lastKey = key
	f.lastMsg = msg
	if f.publishCalls <= f.failFirst {
		return errors.New("channel closed")
	}
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed++
	return nil
}

func newTestRabbitMQSender(ch amqpChannel) *rabbitMQSender {
	return &rabbitMQSender{
		cfg: config.RabbitMQConfig{
			Exchange:   "stock_data_exchange",
			RoutingKey: "stock_data",
		},
		logger:  slog.Default(),
		channel: ch,
	}
}

func TestRabbitMQSender_Send(t *testing.T) {
	ch := &fakeChannel{}
	s := newTestRabbitMQSender(ch)

	if err := s.Send(context.Background(), testQuote()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if ch.publishCalls != 1 {
		t.Errorf("publish called %d times, want 1", ch.publishCalls)
	}
	if ch.lastExchange != "stock_data_exchange" {
		t.Errorf("exchange = %q, want stock_data_exchange", ch.lastExchange)
	}
	if ch.lastKey != "stock_data" {
		t.Errorf("routing key = %q, want stock_data", ch.lastKey)
	}
	if ch.lastMsg.DeliveryMode != amqp.Persistent {
		t.Errorf("delivery mode = %d, want persistent", ch.lastMsg.DeliveryMode)
	}
	if ch.lastMsg.MessageId == "" {
		t.Error("message id not set")
	}

	var q model.Quote
	if err := json.Unmarshal(ch.lastMsg.Body, &q); err != nil {
		t.Fatalf("body is not a quote: %v", err)
	}
	if q.Symbol != "AAPL" {
		t.Errorf("published symbol = %q, want AAPL", q.Symbol)
	}
}

func TestRabbitMQSender_RetriesThenSucceeds(t *testing.T) {
	ch := &fakeChannel{failFirst: 2}
	s := newTestRabbitMQSender(ch)

	if err := s.Send(context.Background(), testQuote()); err != nil {
		t.Fatalf("Send failed after transient errors: %v", err)
	}
	if ch.publishCalls != 3 {
		t.Errorf("publish called %d times, want 3", ch.publishCalls)
	}
}

func TestRabbitMQSender_ExhaustedRetries(t *testing.T) {
	ch := &fakeChannel{failFirst: 10}
	s := newTestRabbitMQSender(ch)

	err := s.Send(context.Background(), testQuote())

	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("err = %v, want *PublishError", err)
	}
	if pubErr.Queue != "rabbitmq" {
		t.Errorf("Queue = %q, want rabbitmq", pubErr.Queue)
	}
	if ch.publishCalls != 3 {
		t.Errorf("publish called %d times, want exactly 3", ch.publishCalls)
	}
}

func TestRabbitMQSender_CloseIdempotent(t *testing.T) {
	ch := &fakeChannel{}
	s := newTestRabbitMQSender(ch)

	if err := s.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if ch.closed != 1 {
		t.Errorf("channel closed %d times, want 1", ch.closed)
	}
}

func TestRabbitMQSender_HealthCheckWithoutConnection(t *testing.T) {
	s := newTestRabbitMQSender(&fakeChannel{})
	if s.HealthCheck(context.Background()) {
		t.Error("HealthCheck = true with no connection, want false")
	}
}
