package normalizetext

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rag-brand-guard/internal/brand/normalizer"
	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/observability"
)

const TaskType = "rag-normalize-text"

type Handler struct {
	config     *Config
	normalizer *normalizer.Normalizer
	logger     logger.Logger
	runner     *camunda.JobRunner
}

func NewHandler(config *Config, n *normalizer.Normalizer, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		normalizer: n,
		logger:     log,
		runner:     camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
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

// Execute normalizes the text. Query mode also returns the search
// variations; content mode returns none.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	output := &Output{Variations: []string{}}

	if input.Mode == ModeContent {
		output.NormalizedText = h.normalizer.NormalizeContent(input.Text)
	} else {
		output.NormalizedText = h.normalizer.NormalizeQuery(input.Text)
		output.Variations = h.normalizer.GenerateSearchVariations(input.Text)
	}

	output.MentionedEntities = h.normalizer.Mentions(output.NormalizedText)
	if output.MentionedEntities == nil {
		output.MentionedEntities = []string{}
	}

	h.logger.Debug("text normalized", map[string]interface{}{
		"mode":       input.Mode,
		"changed":    output.NormalizedText != input.Text,
		"variations": len(output.Variations),
	})
	return output, nil
}
