package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"stockpoller/internal/config"
	"stockpoller/internal/model"
	"stockpoller/internal/retry"
)

// sqsAPI is the slice of the SQS client used by the sender, split out so
// tests can substitute a fake.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// sqsSender submits quotes to a managed point-to-point queue by URL.
// There is no long-lived connection, so Close is a no-op.
type sqsSender struct {
	cfg    config.SQSConfig
	client sqsAPI
	logger *slog.Logger
}

func newSQSSender(ctx context.Context, cfg config.SQSConfig, logger *slog.Logger) (*sqsSender, error) {
	// Fail fast before building any client.
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("%w: sqs queue url is required", ErrMissingConfiguration)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger.Info("sqs client initialized", "queue_url", cfg.QueueURL)

	return &sqsSender{
		cfg:    cfg,
		client: sqs.NewFromConfig(awsCfg),
		logger: logger,
	}, nil
}

func (s *sqsSender) Send(ctx context.Context, q model.Quote) error {
	body, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.cfg.QueueURL),
		MessageBody: aws.String(string(body)),
	}
	if strings.HasSuffix(s.cfg.QueueURL, ".fifo") {
		group := s.cfg.MessageGroup
		if group == "" {
			group = "quotes"
		}
		input.MessageGroupId = aws.String(group)
		input.MessageDeduplicationId = aws.String(uuid.NewString())
	}

	out, err := retry.Do(ctx, s.logger, "sqs send", backoffPolicy(), func() (*sqs.SendMessageOutput, error) {
		return s.client.SendMessage(ctx, input)
	})
	if err != nil {
		return &PublishError{Queue: "sqs", Err: err}
	}

	s.logger.Debug("published quote",
		"queue", "sqs",
		"symbol", q.Symbol,
		"message_id", aws.ToString(out.MessageId),
	)
	return nil
}

func (s *sqsSender) HealthCheck(ctx context.Context) bool {
	_, err := s.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(s.cfg.QueueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
	})
	return err == nil
}

func (s *sqsSender) Close() error {
	// No connection to release.
	return nil
}
