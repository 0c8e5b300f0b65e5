package enhancequery

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
	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/common/logger"
)

func newTestHandler(t *testing.T) (*Handler, *brand.Core) {
	t.Helper()
	core, err := brand.Load("", enhancer.Options{})
	require.NoError(t, err)
	return NewHandler(&Config{Timeout: 5 * time.Second}, core, logger.NewTestLogger(t), nil), core
}

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 2, Type: TaskType, Retries: 3, Variables: variables}}
}

func TestExecute_LowCoverageEntity(t *testing.T) {
	h, core := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{Query: "¿Cómo está posicionada ponds?"})
	require.NoError(t, err)

	assert.Equal(t, "ponds", out.DetectedEntity)
	assert.Equal(t, 1, out.Attempt)
	assert.Equal(t, "comprehensive", out.Strategy)
	assert.Contains(t, out.EnhancedQuery, "Pond's")
	assert.Contains(t, out.EnhancedQuery, "Nivea")
	assert.NotEqual(t, out.EnhancedQuery, out.SearchTerms)
	assert.Greater(t, out.RetrievalConfig.MaxChunks, core.Enhancer.DefaultConfig().MaxChunks)
	assert.Less(t, out.RetrievalConfig.SimilarityThreshold, core.Enhancer.DefaultConfig().SimilarityThreshold)
	assert.Equal(t, "cuidado facial", out.RetrievalConfig.Category)
	assert.Contains(t, out.Rationale, "comprehensive")
	assert.Empty(t, out.AlsoDetected)
}

func TestExecute_SecondAttemptWidens(t *testing.T) {
	h, core := newTestHandler(t)
	query := "¿Cómo está posicionada Pond's?"

	first, err := h.Execute(context.Background(), &Input{Query: query, Attempt: 1})
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), &Input{Query: query, Attempt: 2})
	require.NoError(t, err)

	profile := core.Enhancer.DetectEntity(query)
	require.NotNil(t, profile)
	assert.Equal(t, core.Enhancer.BuildSearchTerms(query, profile, 2), second.SearchTerms)
	assert.NotEqual(t, first.SearchTerms, second.SearchTerms)
	assert.Equal(t, core.Enhancer.BoostedConfig(profile), second.RetrievalConfig)
}

func TestExecute_NoEntityPassesThrough(t *testing.T) {
	h, core := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{Query: "¿Qué marcas lideran?", Attempt: 2})
	require.NoError(t, err)

	assert.Empty(t, out.DetectedEntity)
	assert.Empty(t, out.Strategy)
	assert.Equal(t, "¿Qué marcas lideran?", out.EnhancedQuery)
	assert.Equal(t, "¿Qué marcas lideran?", out.SearchTerms)
	assert.Equal(t, core.Enhancer.DefaultConfig(), out.RetrievalConfig)
}

func TestExecute_HeadToHead(t *testing.T) {
	h, _ := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{Query: "Pond's vs Fab"})
	require.NoError(t, err)
	assert.Equal(t, "ponds", out.DetectedEntity)
	assert.Equal(t, []string{"fab"}, out.AlsoDetected)
}

func TestInputSchema(t *testing.T) {
	var input Input
	require.NoError(t, camunda.DecodeVariables(createMockJob(`{"query":"Fab","attempt":2}`), inputSchema, &input))
	assert.Equal(t, 2, input.Attempt)

	var stdErr *errors.StandardError
	for _, vars := range []string{`{"query":""}`, `{"query":"Fab","attempt":3}`, `{"attempt":1}`} {
		err := camunda.DecodeVariables(createMockJob(vars), inputSchema, &input)
		require.ErrorAs(t, err, &stdErr, vars)
		assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
	}
}
