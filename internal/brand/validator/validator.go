// Package validator checks that a generated answer discusses the entity the
// user asked about and replaces wrong-entity answers with an honest
// admission of missing data.
package validator

import (
	"fmt"
	"strings"

	"rag-brand-guard/internal/brand/normalizer"
	"rag-brand-guard/pkg/registry"
)

const (
	mentionWeight        = 0.7
	wrongEntityPenalty   = 0.5
	focusBonus           = 0.3
	honestAdmissionScore = 0.9
	relevanceThreshold   = 0.6
)

// Entity is a known brand as reported in a relevance check.
type Entity struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// RelevanceCheck is the verdict on one query/answer pair.
type RelevanceCheck struct {
	RequestedEntity          *Entity  `json:"requestedEntity"`
	MentionedEntities        []Entity `json:"mentionedEntities"`
	RequestedMentioned       bool     `json:"requestedMentioned"`
	HonestAdmission          bool     `json:"honestAdmission"`
	RelevanceScore           float64  `json:"relevanceScore"`
	IsRelevant               bool     `json:"isRelevant"`
	ShouldShowHonestResponse bool     `json:"shouldShowHonestResponse"`
	Reasons                  []string `json:"reasons"`
}

// MentionedNames returns the display names of the mentioned entities.
func (c RelevanceCheck) MentionedNames() []string {
	return names(c.MentionedEntities)
}

// Validator is immutable after New and safe for concurrent use.
type Validator struct {
	normalizer *normalizer.Normalizer
	entities   []Entity
	noInfo     []string
}

// New builds a validator over the registry's known entities. n must have
// been built from the same registry.
func New(reg *registry.EntityRegistry, n *normalizer.Normalizer) *Validator {
	v := &Validator{normalizer: n}
	for _, e := range reg.Entities {
		v.entities = append(v.entities, Entity{Key: e.Key, Name: e.Canonical, Category: e.Category})
	}
	for _, p := range reg.NoInfoPhrases {
		if p = strings.TrimSpace(normalizer.FoldLower(p)); p != "" {
			v.noInfo = append(v.noInfo, p)
		}
	}
	return v
}

// KnownEntities returns the known entity list in registry order.
func (v *Validator) KnownEntities() []Entity {
	return append([]Entity(nil), v.entities...)
}

// DetectRequestedEntity returns the first known entity, in list order,
// referenced by query, or nil.
func (v *Validator) DetectRequestedEntity(query string) *Entity {
	for _, e := range v.entities {
		if v.normalizer.ContainsReferences(query, e.Key) {
			found := e
			return &found
		}
	}
	return nil
}

// DetectMentionedEntities returns every known entity referenced by answer,
// in list order.
func (v *Validator) DetectMentionedEntities(answer string) []Entity {
	out := []Entity{}
	for _, e := range v.entities {
		if v.normalizer.ContainsReferences(answer, e.Key) {
			out = append(out, e)
		}
	}
	return out
}

// Validate scores answer against the entity requested in query.
func (v *Validator) Validate(query, answer string) RelevanceCheck {
	check := RelevanceCheck{
		RequestedEntity:   v.DetectRequestedEntity(query),
		MentionedEntities: v.DetectMentionedEntities(answer),
		Reasons:           []string{},
	}

	requested := check.RequestedEntity
	if requested == nil {
		check.RelevanceScore = 1.0
		check.IsRelevant = true
		check.Reasons = append(check.Reasons, "no specific entity requested; query treated as general")
		return check
	}

	for _, m := range check.MentionedEntities {
		if m.Key == requested.Key {
			check.RequestedMentioned = true
			break
		}
	}

	score := 0.0
	if check.RequestedMentioned {
		score += mentionWeight
		check.Reasons = append(check.Reasons, fmt.Sprintf("answer mentions %s", requested.Name))
		if len(check.MentionedEntities) == 1 {
			score += focusBonus
			check.Reasons = append(check.Reasons, fmt.Sprintf("answer is focused on %s", requested.Name))
		}
	} else if len(check.MentionedEntities) > 0 {
		score -= wrongEntityPenalty
		check.Reasons = append(check.Reasons, fmt.Sprintf("answer discusses %s instead of %s",
			strings.Join(check.MentionedNames(), ", "), requested.Name))
	} else {
		check.Reasons = append(check.Reasons, fmt.Sprintf("answer does not mention %s", requested.Name))
	}
	score = clamp(score)

	if !check.RequestedMentioned && v.admitsMissingInfo(answer) {
		score = honestAdmissionScore
		check.HonestAdmission = true
		check.Reasons = append(check.Reasons, fmt.Sprintf("answer admits there is no information about %s", requested.Name))
	}

	check.RelevanceScore = score
	check.IsRelevant = score >= relevanceThreshold
	check.ShouldShowHonestResponse = !check.IsRelevant
	return check
}

func (v *Validator) admitsMissingInfo(answer string) bool {
	folded := normalizer.FoldLower(answer)
	for _, p := range v.noInfo {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func names(entities []Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Name
	}
	return out
}
