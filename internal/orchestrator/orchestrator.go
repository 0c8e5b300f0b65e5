// Package orchestrator runs one question end to end: normalize, enhance,
// query the backend, widen once when the answer is weak, validate and
// reconcile, then emit diagnostics.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"rag-brand-guard/internal/backend"
	"rag-brand-guard/internal/brand"
	"rag-brand-guard/internal/brand/catalog"
	"rag-brand-guard/internal/brand/enhancer"
	"rag-brand-guard/internal/brand/validator"
	"rag-brand-guard/internal/common/metrics"
	"rag-brand-guard/internal/common/observability"
	"rag-brand-guard/internal/models"
	"rag-brand-guard/internal/notify"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// DiagnosticsRecorder persists a diagnostics bundle.
type DiagnosticsRecorder interface {
	Record(ctx context.Context, d models.Diagnostics) error
}

// GapNotifier alerts on questions the corpus could not answer.
type GapNotifier interface {
	Notify(ctx context.Context, gap notify.CoverageGap) (string, error)
}

type Options struct {
	Backend        backend.Querier
	Recorder       DiagnosticsRecorder // optional
	Notifier       GapNotifier         // optional
	Observability  *observability.Observability
	Logger         Logger
	EnableWidening bool
}

// Result is the final answer to one question.
type Result struct {
	Answer      string                   `json:"answer"`
	Outcome     validator.Outcome        `json:"outcome"`
	Diagnostics models.Diagnostics       `json:"diagnostics"`
	Attempts    int                      `json:"attempts"`
	Citations   []models.Citation        `json:"citations"`
	Check       validator.RelevanceCheck `json:"relevanceCheck"`
}

type Orchestrator struct {
	core           *brand.Core
	backend        backend.Querier
	recorder       DiagnosticsRecorder
	notifier       GapNotifier
	obs            *observability.Observability
	logger         Logger
	enableWidening bool
	now            func() time.Time
}

func New(core *brand.Core, opts Options) (*Orchestrator, error) {
	if core == nil {
		return nil, fmt.Errorf("brand core is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Orchestrator{
		core:           core,
		backend:        opts.Backend,
		recorder:       opts.Recorder,
		notifier:       opts.Notifier,
		obs:            opts.Observability,
		logger:         opts.Logger,
		enableWidening: opts.EnableWidening,
		now:            time.Now,
	}, nil
}

type attempt struct {
	response *models.BackendResponse
	quality  *enhancer.QualityReport
}

// Answer runs the pipeline for query. Backend errors are returned as they
// come from the backend and nothing downstream runs.
func (o *Orchestrator) Answer(ctx context.Context, query string) (*Result, error) {
	started := o.now()
	ctx, span := o.obs.StartSpan(ctx, "rag.answer")
	defer span.End()

	e := o.core.Enhancer
	normalized := o.core.Normalizer.NormalizeQuery(query)
	profile := e.DetectEntity(normalized)
	enhancement := e.Enhance(normalized, profile)

	entityLabel := "none"
	if profile != nil {
		entityLabel = profile.Key
	}
	span.SetAttributes(
		attribute.String("rag.entity", entityLabel),
		attribute.String("rag.intent", string(enhancement.Intent)),
	)

	chosen, err := o.query(ctx, 1, models.BackendRequest{Query: enhancement.Query, Config: enhancement.Config}, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.obs.RecordRequest(ctx, "backend_error", entityLabel, time.Since(started))
		o.logger.Error("backend query failed", map[string]interface{}{
			"entity": entityLabel,
			"error":  err.Error(),
		})
		return nil, err
	}

	attempts := 1
	if o.shouldWiden(profile, chosen) {
		attempts = 2
		widened, err := o.query(ctx, 2, models.BackendRequest{
			Query:  e.BuildSearchTerms(normalized, profile, 2),
			Config: e.BoostedConfig(profile),
		}, profile)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.obs.RecordRequest(ctx, "backend_error", entityLabel, time.Since(started))
			return nil, err
		}
		if widened.quality.Level.Rank() > chosen.quality.Level.Rank() {
			chosen = widened
		}
	}

	v := o.core.Validator
	check := v.Validate(query, chosen.response.Answer)
	final, outcome := v.Reconcile(chosen.response.Answer, check)

	diag := o.diagnostics(query, normalized, profile, enhancement, chosen, attempts, check, outcome)
	o.observe(enhancement, check, outcome)
	span.SetAttributes(
		attribute.String("rag.outcome", string(outcome)),
		attribute.Float64("rag.relevance_score", check.RelevanceScore),
		attribute.Int("rag.attempts", attempts),
	)
	o.obs.RecordRequest(ctx, string(outcome), entityLabel, time.Since(started))

	o.logger.Info("question answered", map[string]interface{}{
		"requestId":       diag.RequestID,
		"detectedEntity":  diag.DetectedEntity,
		"alsoDetected":    diag.AlsoDetected,
		"intent":          diag.Intent,
		"qualityLevel":    diag.QualityLevel,
		"attempts":        diag.Attempts,
		"outcome":         diag.Outcome,
		"relevanceScore":  diag.RelevanceScore,
		"chunksRetrieved": diag.ChunksRetrieved,
		"rationale":       diag.EnhancementRationale,
	})

	o.emit(ctx, diag, check, outcome)

	return &Result{
		Answer:      final,
		Outcome:     outcome,
		Diagnostics: diag,
		Attempts:    attempts,
		Citations:   chosen.response.Citations,
		Check:       check,
	}, nil
}

func (o *Orchestrator) query(ctx context.Context, n int, req models.BackendRequest, profile *catalog.EntityProfile) (*attempt, error) {
	ctx, span := o.obs.StartSpan(ctx, "rag.backend.query", attribute.Int("rag.attempt", n))
	defer span.End()

	resp, err := o.backend.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	a := &attempt{response: resp}
	if profile != nil {
		report := o.core.Enhancer.EvaluateQuality(resp.Answer, profile)
		a.quality = &report
		metrics.AnswerQuality.WithLabelValues(string(report.Level), strconv.Itoa(n)).Inc()
	}
	return a, nil
}

func (o *Orchestrator) shouldWiden(profile *catalog.EntityProfile, first *attempt) bool {
	return o.enableWidening && profile != nil && first.quality != nil &&
		first.quality.Level == enhancer.QualityInsufficient
}

func (o *Orchestrator) diagnostics(
	query, normalized string,
	profile *catalog.EntityProfile,
	enhancement enhancer.EnhancementResult,
	chosen *attempt,
	attempts int,
	check validator.RelevanceCheck,
	outcome validator.Outcome,
) models.Diagnostics {
	d := models.Diagnostics{
		RequestID:            uuid.New().String(),
		Query:                query,
		Intent:               string(enhancement.Intent),
		MentionedEntities:    []string{},
		RelevanceScore:       check.RelevanceScore,
		EnhancementRationale: enhancement.Rationale,
		Attempts:             attempts,
		Outcome:              string(outcome),
		ChunksRetrieved:      chosen.response.ChunksRetrieved,
		CreatedAt:            o.now().UTC(),
	}
	if profile != nil {
		d.DetectedEntity = profile.Key
		for _, p := range o.core.Enhancer.DetectEntities(normalized) {
			if p.Key != profile.Key {
				d.AlsoDetected = append(d.AlsoDetected, p.Key)
			}
		}
	}
	if chosen.quality != nil {
		d.QualityLevel = string(chosen.quality.Level)
	}
	for _, m := range check.MentionedEntities {
		d.MentionedEntities = append(d.MentionedEntities, m.Key)
	}
	return d
}

func (o *Orchestrator) observe(enhancement enhancer.EnhancementResult, check validator.RelevanceCheck, outcome validator.Outcome) {
	entity := enhancement.EntityKey
	if entity == "" {
		entity = "none"
	}
	metrics.EntityDetections.WithLabelValues(entity).Inc()
	if enhancement.Enhanced {
		metrics.QueryEnhancements.WithLabelValues(string(enhancement.Strategy)).Inc()
	}
	metrics.ValidationOutcomes.WithLabelValues(string(outcome)).Inc()
	metrics.RelevanceScore.Observe(check.RelevanceScore)
}

// emit hands the bundle to the optional sinks. Their failures are logged
// and never change the answer.
func (o *Orchestrator) emit(ctx context.Context, d models.Diagnostics, check validator.RelevanceCheck, outcome validator.Outcome) {
	if o.recorder != nil {
		if err := o.recorder.Record(ctx, d); err != nil {
			o.logger.Warn("failed to record diagnostics", map[string]interface{}{
				"requestId": d.RequestID,
				"error":     err.Error(),
			})
		}
	}

	if o.notifier == nil || outcome != validator.OutcomeSubstituted || check.RequestedEntity == nil {
		return
	}
	gap := notify.GapFromDiagnostics(d, check.RequestedEntity.Key, check.RequestedEntity.Name)
	if _, err := o.notifier.Notify(ctx, gap); err != nil {
		o.logger.Warn("failed to send coverage gap alert", map[string]interface{}{
			"requestId": d.RequestID,
			"entity":    check.RequestedEntity.Key,
			"error":     err.Error(),
		})
	}
}
