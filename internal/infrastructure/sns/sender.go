package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/succession-vault/internal/config"
	"github.com/succession-vault/internal/domain"
)

const eventTypeSuccessionTrigger = "succession.trigger"

// TriggerPublisher emits succession triggers to the notifier.
type TriggerPublisher interface {
	PublishTrigger(ctx context.Context, t domain.SuccessionTrigger) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

// NewTriggerPublisher returns a topic publisher, or a log-only publisher when no
// topic is configured.
func NewTriggerPublisher(awsCfg aws.Config, cfg *config.Config) TriggerPublisher {
	if cfg.SuccessionTopicARN == "" {
		slog.Warn("SUCCESSION_TOPIC_ARN not set, succession triggers will only be logged")
		return logPublisher{}
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.Region = cfg.SNSRegion
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
	return &publisher{client: client, topicARN: cfg.SuccessionTopicARN}
}

func (p *publisher) PublishTrigger(ctx context.Context, t domain.SuccessionTrigger) error {
	input, err := publishInput(p.topicARN, t)
	if err != nil {
		return err
	}
	if _, err := p.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

func publishInput(topicARN string, t domain.SuccessionTrigger) (*sns.PublishInput, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal trigger: %w", err)
	}
	return &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventTypeSuccessionTrigger)},
			"user_id":    {DataType: aws.String("String"), StringValue: aws.String(t.UserID)},
		},
	}, nil
}

type logPublisher struct{}

func (logPublisher) PublishTrigger(_ context.Context, t domain.SuccessionTrigger) error {
	slog.Info("succession trigger",
		"event_id", t.EventID,
		"user_id", t.UserID,
		"deadline", t.Deadline,
	)
	return nil
}
