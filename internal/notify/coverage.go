// Package notify publishes coverage-gap alerts when an answer had to be
// replaced by an honest "no data" response.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclient "rag-brand-guard/internal/common/aws"
	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/models"
)

// Publisher is satisfied by the SNS client.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// CoverageGap is the alert body.
type CoverageGap struct {
	RequestID         string   `json:"request_id"`
	RequestedEntity   string   `json:"requested_entity"`
	EntityName        string   `json:"entity_name"`
	Query             string   `json:"query"`
	MentionedEntities []string `json:"mentioned_entities"`
	RelevanceScore    float64  `json:"relevance_score"`
	ChunksRetrieved   int      `json:"chunks_retrieved"`
}

// GapFromDiagnostics fills an alert from a diagnostics bundle.
func GapFromDiagnostics(d models.Diagnostics, entityKey, entityName string) CoverageGap {
	mentioned := d.MentionedEntities
	if mentioned == nil {
		mentioned = []string{}
	}
	return CoverageGap{
		RequestID:         d.RequestID,
		RequestedEntity:   entityKey,
		EntityName:        entityName,
		Query:             d.Query,
		MentionedEntities: mentioned,
		RelevanceScore:    d.RelevanceScore,
		ChunksRetrieved:   d.ChunksRetrieved,
	}
}

type CoverageGapNotifier struct {
	publisher Publisher
	topicARN  string
	logger    Logger
}

func NewCoverageGapNotifier(publisher Publisher, topicARN string, log Logger) (*CoverageGapNotifier, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("coverage gap topic arn is required")
	}
	return &CoverageGapNotifier{publisher: publisher, topicARN: topicARN, logger: log}, nil
}

// Notify publishes gap and returns the SNS message id.
func (n *CoverageGapNotifier) Notify(ctx context.Context, gap CoverageGap) (string, error) {
	body, err := json.Marshal(gap)
	if err != nil {
		return "", errors.NewNotificationSendFailedError("coverage-gap", err)
	}

	input := awsclient.TopicMessage(
		n.topicARN,
		fmt.Sprintf("Coverage gap: %s", gap.EntityName),
		string(body),
		map[string]string{
			"entity":    gap.RequestedEntity,
			"requestId": gap.RequestID,
		},
	)

	out, err := n.publisher.Publish(ctx, input)
	if err != nil {
		n.logger.Error("failed to publish coverage gap", map[string]interface{}{
			"entity": gap.RequestedEntity,
			"error":  err.Error(),
		})
		return "", errors.NewNotificationSendFailedError("coverage-gap", err).
			WithMetadata("entity", gap.RequestedEntity)
	}

	messageID := aws.ToString(out.MessageId)
	n.logger.Info("coverage gap published", map[string]interface{}{
		"entity":    gap.RequestedEntity,
		"requestId": gap.RequestID,
		"messageId": messageID,
	})
	return messageID, nil
}
