package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/models"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func sampleGap() CoverageGap {
	return GapFromDiagnostics(models.Diagnostics{
		RequestID:         "req-1",
		Query:             "¿Cómo está posicionada Pond's?",
		MentionedEntities: []string{"dove"},
		ChunksRetrieved:   2,
	}, "ponds", "Pond's")
}

func TestNotify(t *testing.T) {
	pub := &fakePublisher{}
	n, err := NewCoverageGapNotifier(pub, "arn:aws:sns:us-east-1:123456789012:rag-coverage-gaps", logger.NewTestLogger(t))
	require.NoError(t, err)

	id, err := n.Notify(context.Background(), sampleGap())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, pub.inputs, 1)
	input := pub.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:rag-coverage-gaps", aws.ToString(input.TopicArn))
	assert.Equal(t, "Coverage gap: Pond's", aws.ToString(input.Subject))
	assert.Equal(t, "ponds", aws.ToString(input.MessageAttributes["entity"].StringValue))

	var body CoverageGap
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.Message)), &body))
	assert.Equal(t, sampleGap(), body)
}

func TestNotify_PublishFailure(t *testing.T) {
	pub := &fakePublisher{err: stderrors.New("throttled")}
	n, err := NewCoverageGapNotifier(pub, "arn:topic", logger.NewTestLogger(t))
	require.NoError(t, err)

	_, err = n.Notify(context.Background(), sampleGap())
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestNewCoverageGapNotifier_RequiresTopic(t *testing.T) {
	_, err := NewCoverageGapNotifier(&fakePublisher{}, "", logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestGapFromDiagnostics_NilMentioned(t *testing.T) {
	gap := GapFromDiagnostics(models.Diagnostics{RequestID: "r"}, "fab", "Fab")
	assert.NotNil(t, gap.MentionedEntities)
}
