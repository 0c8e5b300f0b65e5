package enhancer

import (
	"fmt"
	"strings"

	"rag-brand-guard/internal/brand/catalog"
	"rag-brand-guard/internal/models"
)

// EnhancementResult is the rewritten query, its retrieval configuration and
// a rationale naming the strategy applied.
type EnhancementResult struct {
	Query     string                 `json:"query"`
	Config    models.RetrievalConfig `json:"config"`
	Rationale string                 `json:"rationale"`
	Strategy  catalog.Strategy       `json:"strategy,omitempty"`
	EntityKey string                 `json:"entityKey,omitempty"`
	Intent    Intent                 `json:"intent"`
	Enhanced  bool                   `json:"enhanced"`
}

// Enhance appends strategy-specific context to query and biases retrieval
// toward recall. A nil profile passes the query through with the default
// configuration.
func (e *Enhancer) Enhance(query string, profile *catalog.EntityProfile) EnhancementResult {
	intent := ClassifyIntent(query)
	if profile == nil {
		return EnhancementResult{
			Query:     query,
			Config:    e.DefaultConfig(),
			Rationale: "no low-coverage entity detected; query sent unchanged",
			Intent:    intent,
		}
	}

	var enhanced, detail string
	switch profile.Strategy {
	case catalog.StrategyCompetitive:
		top := profile.PrimaryCompetitors(3)
		enhanced = joinTerms(query, profile.Name, strings.Join(top, " "), "comparación competitiva", profile.Category)
		detail = "added competitors " + strings.Join(top, ", ")

	case catalog.StrategyContextual:
		terms := profile.TopContextualTerms(4)
		primary := profile.PrimaryCompetitors(1)
		enhanced = joinTerms(query, profile.Name, strings.Join(terms, " "), profile.Category, e.opts.MarketQualifier, strings.Join(primary, " "))
		detail = fmt.Sprintf("added contextual terms %s, market qualifier %q and primary competitor %s",
			strings.Join(terms, ", "), e.opts.MarketQualifier, strings.Join(primary, ""))

	default:
		top := profile.PrimaryCompetitors(2)
		terms := profile.TopContextualTerms(3)
		enhanced = joinTerms(query, profile.Name, strings.Join(top, " vs "), strings.Join(terms, " "), profile.Category, "insights mercado")
		detail = fmt.Sprintf("added %s and contextual terms %s", strings.Join(top, " vs "), strings.Join(terms, ", "))
	}

	config := e.BoostedConfig(profile)

	return EnhancementResult{
		Query:  enhanced,
		Config: config,
		Rationale: fmt.Sprintf("%s strategy for low-coverage entity %s (%s): %s; max_chunks %d->%d, similarity_threshold %.2f->%.2f",
			profile.Strategy, profile.Name, profile.Category, detail,
			e.opts.DefaultMaxChunks, config.MaxChunks,
			e.opts.DefaultSimilarityThreshold, config.SimilarityThreshold),
		Strategy:  profile.Strategy,
		EntityKey: profile.Key,
		Intent:    intent,
		Enhanced:  true,
	}
}

var intentFocus = map[Intent]string{
	IntentOpportunities: "oportunidades crecimiento",
	IntentPositioning:   "posicionamiento",
	IntentPerception:    "percepción consumidores",
	IntentComparison:    "comparación",
	IntentPerformance:   "desempeño participación de mercado",
	IntentGeneral:       "",
}

// BuildSearchTerms returns the term string for a retrieval attempt. The
// first attempt is narrow and shaped by the query intent. Later attempts
// widen to more competitors and contextual terms around the original query.
func (e *Enhancer) BuildSearchTerms(query string, profile *catalog.EntityProfile, attempt int) string {
	if profile == nil {
		return query
	}

	if attempt <= 1 {
		return joinTerms(
			profile.Name,
			intentFocus[ClassifyIntent(query)],
			strings.Join(profile.PrimaryCompetitors(2), " "),
			profile.Category,
		)
	}

	return joinTerms(
		query,
		profile.Name,
		strings.Join(profile.PrimaryCompetitors(4), " "),
		strings.Join(profile.TopContextualTerms(4), " "),
		profile.Category,
	)
}

// BoostedConfig raises the chunk budget, lowers the similarity threshold
// and carries the competitor list and category for backend-side boosting.
func (e *Enhancer) BoostedConfig(profile *catalog.EntityProfile) models.RetrievalConfig {
	if profile == nil {
		return e.DefaultConfig()
	}
	return models.RetrievalConfig{
		MaxChunks:           e.opts.BoostedMaxChunks,
		SimilarityThreshold: e.opts.LoweredSimilarityThreshold,
		CompetitorList:      append([]string(nil), profile.Competitors...),
		Category:            profile.Category,
	}
}
