package answerquestion

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/observability"
	"rag-brand-guard/internal/models"
	"rag-brand-guard/internal/orchestrator"
)

const TaskType = "rag-answer-question"

// Answerer runs the full question pipeline.
type Answerer interface {
	Answer(ctx context.Context, query string) (*orchestrator.Result, error)
}

type Handler struct {
	config   *Config
	answerer Answerer
	logger   logger.Logger
	runner   *camunda.JobRunner
}

func NewHandler(config *Config, answerer Answerer, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		answerer: answerer,
		logger:   log,
		runner:   camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.answerer.Answer(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	citations := res.Citations
	if citations == nil {
		citations = []models.Citation{}
	}
	return &Output{
		Answer:      res.Answer,
		Outcome:     string(res.Outcome),
		Diagnostics: res.Diagnostics,
		Attempts:    res.Attempts,
		Citations:   citations,
	}, nil
}
