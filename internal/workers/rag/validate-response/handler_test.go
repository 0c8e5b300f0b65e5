package validateresponse

import (
	"context"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-brand-guard/internal/brand"
	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/internal/brand/validator"
	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/common/logger"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	core, err := brand.Load("", enhancer.Options{})
	require.NoError(t, err)
	return NewHandler(&Config{Timeout: 5 * time.Second}, core.Validator, logger.NewTestLogger(t), nil)
}

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 5, Type: TaskType, Retries: 3, Variables: variables}}
}

func TestExecute(t *testing.T) {
	h := newTestHandler(t)
	query := "¿Cómo está posicionada Pond's?"

	tests := []struct {
		name     string
		answer   string
		outcome  validator.Outcome
		relevant bool
	}{
		{"focused", "Pond's lidera el cuidado facial.", validator.OutcomePassThrough, true},
		{"wrong entity", "Dove y OMO lideran el mercado.", validator.OutcomeSubstituted, false},
		{"admission next to others", "No hay datos sobre eso, pero Dove crece.", validator.OutcomeDisclaimed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{Query: query, Answer: tt.answer})
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, out.Outcome)
			assert.Equal(t, tt.relevant, out.RelevanceCheck.IsRelevant)
			require.NotNil(t, out.RelevanceCheck.RequestedEntity)
			assert.Equal(t, "ponds", out.RelevanceCheck.RequestedEntity.Key)
			if tt.outcome == validator.OutcomePassThrough {
				assert.Equal(t, tt.answer, out.FinalAnswer)
			} else {
				assert.NotEqual(t, tt.answer, out.FinalAnswer)
			}
		})
	}
}

func TestInputSchema(t *testing.T) {
	var input Input
	require.NoError(t, camunda.DecodeVariables(createMockJob(`{"query":"¿Y Fab?","answer":""}`), inputSchema, &input))

	var stdErr *errors.StandardError
	err := camunda.DecodeVariables(createMockJob(`{"query":"¿Y Fab?"}`), inputSchema, &input)
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
}
