package evaluatequality

import (
	"context"
	"fmt"
	"strconv"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rag-brand-guard/internal/brand"
	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/metrics"
	"rag-brand-guard/internal/common/observability"
)

const TaskType = "rag-evaluate-quality"

type Handler struct {
	config         *Config
	core           *brand.Core
	enableWidening bool
	logger         logger.Logger
	runner         *camunda.JobRunner
}

func NewHandler(config *Config, core *brand.Core, enableWidening bool, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:         config,
		core:           core,
		enableWidening: enableWidening,
		logger:         log,
		runner:         camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
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

// Execute grades the answer for a catalogued entity. shouldWiden tells the
// process to run the second retrieval attempt.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	profile, ok := h.core.Catalog.Lookup(input.EntityKey)
	if !ok {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown low-coverage entity %q", input.EntityKey)).
			WithMetadata("entityKey", input.EntityKey)
	}

	attempt := input.Attempt
	if attempt < 1 {
		attempt = 1
	}

	report := h.core.Enhancer.EvaluateQuality(input.Answer, profile)
	metrics.AnswerQuality.WithLabelValues(string(report.Level), strconv.Itoa(attempt)).Inc()

	output := &Output{
		Quality:     report,
		ShouldWiden: h.enableWidening && attempt == 1 && report.Level == enhancer.QualityInsufficient,
	}
	h.logger.Info("answer quality evaluated", map[string]interface{}{
		"entityKey":   input.EntityKey,
		"level":       string(report.Level),
		"attempt":     attempt,
		"shouldWiden": output.ShouldWiden,
	})
	return output, nil
}
