package enhancer

import (
	"fmt"
	"strings"

	"rag-brand-guard/internal/brand/catalog"
)

// QualityLevel grades an answer for a low-coverage entity.
type QualityLevel string

const (
	QualityExcellent    QualityLevel = "excellent"
	QualityGood         QualityLevel = "good"
	QualityInsufficient QualityLevel = "insufficient"
)

// Rank orders levels so a caller can keep the better of two attempts.
func (l QualityLevel) Rank() int {
	switch l {
	case QualityExcellent:
		return 2
	case QualityGood:
		return 1
	default:
		return 0
	}
}

// QualityReport says which ingredients an answer has and what is missing.
type QualityReport struct {
	Level                 QualityLevel `json:"level"`
	HasEntityMention      bool         `json:"hasEntityMention"`
	HasCompetitiveContext bool         `json:"hasCompetitiveContext"`
	HasInsightTerms       bool         `json:"hasInsightTerms"`
	Suggestions           []string     `json:"suggestions"`
}

// EvaluateQuality grades answer against profile: excellent with all three
// ingredients, good with the entity plus one other, else insufficient.
func (e *Enhancer) EvaluateQuality(answer string, profile *catalog.EntityProfile) QualityReport {
	report := QualityReport{Suggestions: []string{}}
	report.HasInsightTerms = e.insight != nil && e.insight.Match(answer)

	pm := e.matcherFor(profile)
	if pm != nil {
		compactAnswer, starts := compactWithStarts(answer)
		report.HasEntityMention = pm.mentionedIn(answer, compactAnswer, starts)
		report.HasCompetitiveContext = pm.competitors.Match(answer)
	}

	switch {
	case report.HasEntityMention && report.HasCompetitiveContext && report.HasInsightTerms:
		report.Level = QualityExcellent
	case report.HasEntityMention && (report.HasCompetitiveContext || report.HasInsightTerms):
		report.Level = QualityGood
	default:
		report.Level = QualityInsufficient
	}

	if pm == nil {
		report.Suggestions = append(report.Suggestions, "no catalogued entity to evaluate against")
		return report
	}
	if !report.HasEntityMention {
		report.Suggestions = append(report.Suggestions, fmt.Sprintf("answer does not mention %s", profile.Name))
	}
	if !report.HasCompetitiveContext {
		report.Suggestions = append(report.Suggestions,
			"add competitive context: "+strings.Join(profile.PrimaryCompetitors(3), ", "))
	}
	if !report.HasInsightTerms {
		report.Suggestions = append(report.Suggestions, "add consumer or market insight terms")
	}
	return report
}
