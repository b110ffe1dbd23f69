package sns

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/succession-vault/internal/config"
	"github.com/succession-vault/internal/domain"
)

func TestPublishInput(t *testing.T) {
	detected := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	trig := domain.SuccessionTrigger{
		EventID:       "evt-1",
		UserID:        "u1",
		ThresholdDays: 180,
		Deadline:      detected.AddDate(0, 0, -20),
		DetectedAt:    detected,
	}

	input, err := publishInput("arn:aws:sns:us-east-1:000000000000:succession", trig)
	require.NoError(t, err)

	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:succession", aws.ToString(input.TopicArn))
	assert.Equal(t, eventTypeSuccessionTrigger, aws.ToString(input.MessageAttributes["event_type"].StringValue))
	assert.Equal(t, "u1", aws.ToString(input.MessageAttributes["user_id"].StringValue))

	var decoded domain.SuccessionTrigger
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.Message)), &decoded))
	assert.Equal(t, trig, decoded)
}

func TestNewTriggerPublisher_FallsBackToLog(t *testing.T) {
	p := NewTriggerPublisher(aws.Config{}, &config.Config{})
	assert.IsType(t, logPublisher{}, p)
	assert.NoError(t, p.PublishTrigger(context.Background(), domain.SuccessionTrigger{UserID: "u1"}))
}
