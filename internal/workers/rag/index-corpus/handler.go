package indexcorpus

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/observability"
	"rag-brand-guard/internal/models"
)

const TaskType = "rag-index-corpus"

// Indexer stores normalized corpus documents.
type Indexer interface {
	Index(ctx context.Context, index string, docs []models.Document) (*models.IndexResult, error)
}

type Handler struct {
	config  *Config
	indexer Indexer
	logger  logger.Logger
	runner  *camunda.JobRunner
}

func NewHandler(config *Config, indexer Indexer, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		indexer: indexer,
		logger:  log,
		runner:  camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		var input Input
		if err := camunda.DecodeVariables(job, inputSchema, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

// Execute indexes the batch. Rejected documents are reported in the output;
// only a failed request fails the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	index := input.Index
	if index == "" {
		index = h.config.DefaultIndex
	}

	result, err := h.indexer.Index(ctx, index, input.Documents)
	if err != nil {
		return nil, err
	}

	failedIDs := result.FailedIDs
	if failedIDs == nil {
		failedIDs = []string{}
	}
	if result.Failed > 0 {
		h.logger.Warn("some documents were not indexed", map[string]interface{}{
			"index":     index,
			"failed":    result.Failed,
			"failedIds": failedIDs,
		})
	}
	return &Output{Index: index, Indexed: result.Indexed, Failed: result.Failed, FailedIDs: failedIDs}, nil
}
