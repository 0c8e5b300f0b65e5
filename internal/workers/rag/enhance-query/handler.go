package enhancequery

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rag-brand-guard/internal/brand"
	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/metrics"
	"rag-brand-guard/internal/common/observability"
)

const TaskType = "rag-enhance-query"

type Handler struct {
	config *Config
	core   *brand.Core
	logger logger.Logger
	runner *camunda.JobRunner
}

func NewHandler(config *Config, core *brand.Core, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		core:   core,
		logger: log,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
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

// Execute detects the low-coverage entity in the query and rewrites it.
// Attempt 2 widens the search terms and always uses the boosted retrieval
// configuration.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	attempt := input.Attempt
	if attempt < 1 {
		attempt = 1
	}

	e := h.core.Enhancer
	normalized := h.core.Normalizer.NormalizeQuery(input.Query)
	profile := e.DetectEntity(normalized)
	result := e.Enhance(normalized, profile)

	output := &Output{
		AlsoDetected:    []string{},
		Intent:          string(result.Intent),
		Strategy:        string(result.Strategy),
		EnhancedQuery:   result.Query,
		SearchTerms:     e.BuildSearchTerms(normalized, profile, attempt),
		RetrievalConfig: result.Config,
		Rationale:       result.Rationale,
		Attempt:         attempt,
	}

	entity := "none"
	if profile != nil {
		entity = profile.Key
		output.DetectedEntity = profile.Key
		for _, p := range e.DetectEntities(normalized) {
			if p.Key != profile.Key {
				output.AlsoDetected = append(output.AlsoDetected, p.Key)
			}
		}
		if attempt > 1 {
			output.RetrievalConfig = e.BoostedConfig(profile)
		}
		metrics.QueryEnhancements.WithLabelValues(string(result.Strategy)).Inc()
	}
	metrics.EntityDetections.WithLabelValues(entity).Inc()

	h.logger.Info("query enhanced", map[string]interface{}{
		"detectedEntity": output.DetectedEntity,
		"intent":         output.Intent,
		"attempt":        attempt,
		"strategy":       output.Strategy,
	})
	return output, nil
}
