// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-brand-guard/internal/backend"
	"rag-brand-guard/internal/brand"
	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/internal/brand/validator"
	"rag-brand-guard/internal/common/config"
	"rag-brand-guard/internal/common/database"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/observability"
	"rag-brand-guard/internal/diagnostics"
	"rag-brand-guard/internal/models"
	"rag-brand-guard/internal/notify"
	"rag-brand-guard/internal/orchestrator"

	enhancequery "rag-brand-guard/internal/workers/rag/enhance-query"
	evaluatequality "rag-brand-guard/internal/workers/rag/evaluate-quality"
	normalizetext "rag-brand-guard/internal/workers/rag/normalize-text"
	querybackend "rag-brand-guard/internal/workers/rag/query-backend"
	validateresponse "rag-brand-guard/internal/workers/rag/validate-response"
)

const (
	pondsQuery = "¿Cómo está posicionada Pond's?"
	fabQuery   = "¿Cómo compite Fab con Ariel?"

	weakAnswer   = "El mercado crece."
	strongAnswer = "Pond's compite con Nivea y los consumidores valoran la hidratación facial."
	offTarget    = "Dove y OMO lideran el mercado."
)

// ragServer stands in for the retrieval backend. Queries listed in strong
// get the strong answer, every other Pond's query the weak one, and anything
// else an answer about other brands.
type ragServer struct {
	mu      sync.Mutex
	strong  map[string]bool
	queries []string
}

func (s *ragServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query  string                 `json:"query"`
		Config map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.queries = append(s.queries, body.Query)
	strong := s.strong[body.Query]
	s.mu.Unlock()

	answer := offTarget
	switch {
	case strong:
		answer = strongAnswer
	case strings.Contains(body.Query, "Pond's"):
		answer = weakAnswer
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"answer":           answer,
		"citations":        []map[string]interface{}{{"source_name": "estudio-2025.pdf", "excerpt": "...", "similarity_score": 0.7}},
		"chunks_retrieved": 6,
	})
}

func (s *ragServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type capturingPublisher struct {
	mu     sync.Mutex
	inputs []*sns.PublishInput
}

func (p *capturingPublisher) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, input)
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

type pipeline struct {
	core      *brand.Core
	server    *ragServer
	redis     *miniredis.Miniredis
	sqlMock   sqlmock.Sqlmock
	publisher *capturingPublisher
	backend   backend.Querier
	orch      *orchestrator.Orchestrator
	obs       *observability.Observability
}

func newPipeline(t testing.TB) *pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)

	core, err := brand.Load("", enhancer.Options{})
	require.NoError(t, err)

	obs, err := observability.New(observability.Options{
		ServiceName: "rag-brand-guard-e2e",
		Registerer:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	normalized := core.Normalizer.NormalizeQuery(pondsQuery)
	widened := core.Enhancer.BuildSearchTerms(normalized, core.Enhancer.DetectEntity(normalized), 2)
	server := &ragServer{strong: map[string]bool{widened: true}}
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	client, err := backend.NewClient(&backend.Config{
		BaseURL:      httpServer.URL,
		QueryPath:    "/v1/query",
		APIKey:       "e2e-key",
		Timeout:      2 * time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	}, log)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, rdb.Ping(context.Background()))
	t.Cleanup(func() { rdb.Close() })
	cached := backend.NewCachedClient(client, rdb.Client, time.Hour, log)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	recorder, err := diagnostics.NewRecorder(db, "rag_diagnostics", log)
	require.NoError(t, err)

	publisher := &capturingPublisher{}
	notifier, err := notify.NewCoverageGapNotifier(publisher, "arn:aws:sns:us-east-1:000000000000:coverage-gaps", log)
	require.NoError(t, err)

	orch, err := orchestrator.New(core, orchestrator.Options{
		Backend:        cached,
		Recorder:       recorder,
		Notifier:       notifier,
		Observability:  obs,
		Logger:         log,
		EnableWidening: true,
	})
	require.NoError(t, err)

	return &pipeline{
		core:      core,
		server:    server,
		redis:     mr,
		sqlMock:   mock,
		publisher: publisher,
		backend:   cached,
		orch:      orch,
		obs:       obs,
	}
}

func (p *pipeline) expectDiagnosticsRow() {
	p.sqlMock.ExpectExec(`INSERT INTO "rag_diagnostics"`).WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestFullE2E(t *testing.T) {
	t.Log("Starting in-process pipeline test...")

	testCases := []struct {
		name   string
		testFn func(*testing.T)
	}{
		{"widened-answer-passes", testWidenedAnswerPasses},
		{"off-target-answer-substituted", testOffTargetAnswerSubstituted},
		{"repeat-question-served-from-cache", testRepeatQuestionServedFromCache},
		{"worker-chain-matches-orchestrator", testWorkerChainMatchesOrchestrator},
	}

	for _, tc := range testCases {
		t.Run(tc.name, tc.testFn)
	}
}

func testWidenedAnswerPasses(t *testing.T) {
	p := newPipeline(t)
	p.expectDiagnosticsRow()

	res, err := p.orch.Answer(context.Background(), pondsQuery)
	require.NoError(t, err)

	assert.Equal(t, strongAnswer, res.Answer)
	assert.Equal(t, validator.OutcomePassThrough, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "ponds", res.Diagnostics.DetectedEntity)
	assert.Equal(t, string(enhancer.QualityExcellent), res.Diagnostics.QualityLevel)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "estudio-2025.pdf", res.Citations[0].SourceName)

	assert.Equal(t, 2, p.server.calls())
	assert.Empty(t, p.publisher.inputs)
	assert.NoError(t, p.sqlMock.ExpectationsWereMet())
}

func testOffTargetAnswerSubstituted(t *testing.T) {
	p := newPipeline(t)
	p.expectDiagnosticsRow()

	res, err := p.orch.Answer(context.Background(), fabQuery)
	require.NoError(t, err)

	assert.Equal(t, validator.OutcomeSubstituted, res.Outcome)
	assert.Contains(t, res.Answer, "No encontré información específica sobre Fab")
	assert.Contains(t, res.Answer, "Dove")
	assert.Equal(t, 2, res.Attempts, "weak answer triggers the widened attempt")
	assert.Equal(t, []string{"dove", "omo"}, res.Diagnostics.MentionedEntities)

	require.Len(t, p.publisher.inputs, 1)
	input := p.publisher.inputs[0]
	assert.Equal(t, "Coverage gap: Fab", aws.ToString(input.Subject))

	var gap notify.CoverageGap
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.Message)), &gap))
	assert.Equal(t, "fab", gap.RequestedEntity)
	assert.Equal(t, res.Diagnostics.RequestID, gap.RequestID)
	assert.Equal(t, fabQuery, gap.Query)
	assert.NoError(t, p.sqlMock.ExpectationsWereMet())
}

func testRepeatQuestionServedFromCache(t *testing.T) {
	p := newPipeline(t)
	p.expectDiagnosticsRow()
	p.expectDiagnosticsRow()

	first, err := p.orch.Answer(context.Background(), pondsQuery)
	require.NoError(t, err)
	calls := p.server.calls()
	assert.Len(t, p.redis.Keys(), calls)

	second, err := p.orch.Answer(context.Background(), pondsQuery)
	require.NoError(t, err)

	assert.Equal(t, calls, p.server.calls(), "second run never reaches the backend")
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Outcome, second.Outcome)
	assert.NotEqual(t, first.Diagnostics.RequestID, second.Diagnostics.RequestID)
	assert.NoError(t, p.sqlMock.ExpectationsWereMet())
}

// testWorkerChainMatchesOrchestrator drives the job handlers in the order a
// process model would and checks they land on the orchestrator's answer.
func testWorkerChainMatchesOrchestrator(t *testing.T) {
	p := newPipeline(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	normalize := normalizetext.NewHandler(&normalizetext.Config{Timeout: 5 * time.Second}, p.core.Normalizer, log, p.obs)
	enhance := enhancequery.NewHandler(&enhancequery.Config{Timeout: 5 * time.Second}, p.core, log, p.obs)
	query := querybackend.NewHandler(&querybackend.Config{Timeout: 5 * time.Second}, p.backend, p.core.Enhancer.DefaultConfig(), log, p.obs)
	evaluate := evaluatequality.NewHandler(&evaluatequality.Config{Timeout: 5 * time.Second}, p.core, true, log, p.obs)
	validate := validateresponse.NewHandler(&validateresponse.Config{Timeout: 5 * time.Second}, p.core.Validator, log, p.obs)

	normalized, err := normalize.Execute(ctx, &normalizetext.Input{Text: pondsQuery, Mode: "query"})
	require.NoError(t, err)
	assert.Contains(t, normalized.MentionedEntities, "ponds")
	assert.NotEmpty(t, normalized.Variations)

	first, err := enhance.Execute(ctx, &enhancequery.Input{Query: pondsQuery, Attempt: 1})
	require.NoError(t, err)
	require.Equal(t, "ponds", first.DetectedEntity)

	answer, err := query.Execute(ctx, &querybackend.Input{Query: first.EnhancedQuery, RetrievalConfig: &first.RetrievalConfig})
	require.NoError(t, err)

	quality, err := evaluate.Execute(ctx, &evaluatequality.Input{Answer: answer.Answer, EntityKey: first.DetectedEntity, Attempt: 1})
	require.NoError(t, err)
	require.True(t, quality.ShouldWiden)

	second, err := enhance.Execute(ctx, &enhancequery.Input{Query: pondsQuery, Attempt: 2})
	require.NoError(t, err)
	widened, err := query.Execute(ctx, &querybackend.Input{Query: second.SearchTerms, RetrievalConfig: &second.RetrievalConfig})
	require.NoError(t, err)

	widenedQuality, err := evaluate.Execute(ctx, &evaluatequality.Input{Answer: widened.Answer, EntityKey: second.DetectedEntity, Attempt: 2})
	require.NoError(t, err)
	assert.False(t, widenedQuality.ShouldWiden, "only the first attempt widens")
	if widenedQuality.Quality.Level.Rank() > quality.Quality.Level.Rank() {
		answer = widened
	}

	checked, err := validate.Execute(ctx, &validateresponse.Input{Query: pondsQuery, Answer: answer.Answer})
	require.NoError(t, err)

	p.expectDiagnosticsRow()
	res, err := p.orch.Answer(ctx, pondsQuery)
	require.NoError(t, err)

	assert.Equal(t, res.Answer, checked.FinalAnswer)
	assert.Equal(t, res.Outcome, checked.Outcome)
	assert.Equal(t, res.Diagnostics.ChunksRetrieved, answer.ChunksRetrieved)
	assert.Equal(t, []models.Citation{{SourceName: "estudio-2025.pdf", Excerpt: "...", SimilarityScore: 0.7}}, answer.Citations)
	assert.NoError(t, p.sqlMock.ExpectationsWereMet())
}

func BenchmarkPipeline_Answer(b *testing.B) {
	p := newPipeline(b)
	for i := 0; i < b.N; i++ {
		p.expectDiagnosticsRow()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.orch.Answer(context.Background(), pondsQuery); err != nil {
			b.Fatal(err)
		}
	}
}
