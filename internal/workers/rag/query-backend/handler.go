package querybackend

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rag-brand-guard/internal/backend"
	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/observability"
	"rag-brand-guard/internal/models"
)

const TaskType = "rag-query-backend"

type Handler struct {
	config        *Config
	backend       backend.Querier
	defaultConfig models.RetrievalConfig
	logger        logger.Logger
	runner        *camunda.JobRunner
}

// NewHandler sends queries through b. defaultConfig is used when a job
// carries no retrieval configuration.
func NewHandler(config *Config, b backend.Querier, defaultConfig models.RetrievalConfig, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:        config,
		backend:       b,
		defaultConfig: defaultConfig,
		logger:        log,
		runner:        camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
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

// Execute forwards the query. Backend errors are returned unchanged so the
// error handler can decide on retries.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cfg := h.defaultConfig
	if input.RetrievalConfig != nil {
		cfg = *input.RetrievalConfig
	}

	resp, err := h.backend.Query(ctx, models.BackendRequest{Query: input.Query, Config: cfg})
	if err != nil {
		return nil, err
	}

	h.logger.Info("backend answered", map[string]interface{}{
		"chunksRetrieved": resp.ChunksRetrieved,
		"citations":       len(resp.Citations),
		"maxChunks":       cfg.MaxChunks,
	})
	return &Output{
		Answer:          resp.Answer,
		Citations:       resp.Citations,
		ChunksRetrieved: resp.ChunksRetrieved,
	}, nil
}
