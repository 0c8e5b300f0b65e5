package validateresponse

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rag-brand-guard/internal/brand/validator"
	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/metrics"
	"rag-brand-guard/internal/common/observability"
)

const TaskType = "rag-validate-response"

type Handler struct {
	config    *Config
	validator *validator.Validator
	logger    logger.Logger
	runner    *camunda.JobRunner
}

func NewHandler(config *Config, v *validator.Validator, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		validator: v,
		logger:    log,
		runner:    camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
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

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	check := h.validator.Validate(input.Query, input.Answer)
	final, outcome := h.validator.Reconcile(input.Answer, check)

	metrics.ValidationOutcomes.WithLabelValues(string(outcome)).Inc()
	metrics.RelevanceScore.Observe(check.RelevanceScore)

	fields := map[string]interface{}{
		"outcome":        string(outcome),
		"relevanceScore": check.RelevanceScore,
		"mentioned":      check.MentionedNames(),
	}
	if check.RequestedEntity != nil {
		fields["requestedEntity"] = check.RequestedEntity.Key
	}
	h.logger.Info("response validated", fields)

	return &Output{RelevanceCheck: check, FinalAnswer: final, Outcome: outcome}, nil
}
