package validator

import (
	"fmt"
	"strings"
)

// Outcome is the terminal state of a validated response.
type Outcome string

const (
	OutcomePassThrough Outcome = "pass_through"
	OutcomeDisclaimed  Outcome = "disclaimed"
	OutcomeSubstituted Outcome = "substituted"
)

// BuildHonestResponse states that nothing specific was found for requested,
// points at the entities the documents did cover and lists the rest of the
// known entities by category. The requested entity is named exactly once.
func (v *Validator) BuildHonestResponse(requested Entity, mentioned []Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No encontré información específica sobre %s en los documentos disponibles.", requested.Name)

	var others []string
	for _, m := range mentioned {
		if m.Key != requested.Key {
			others = append(others, m.Name)
		}
	}
	if len(others) > 0 {
		fmt.Fprintf(&b, "\n\nLos documentos recuperados hablan de %s. Puedo responder sobre esas marcas si te sirve.",
			strings.Join(others, ", "))
	}

	var categories []string
	byCategory := make(map[string][]string)
	for _, e := range v.entities {
		if e.Key == requested.Key {
			continue
		}
		if _, ok := byCategory[e.Category]; !ok {
			categories = append(categories, e.Category)
		}
		byCategory[e.Category] = append(byCategory[e.Category], e.Name)
	}
	if len(categories) > 0 {
		b.WriteString("\n\nMarcas sobre las que puedo ayudarte:")
		for _, c := range categories {
			fmt.Fprintf(&b, "\n- %s: %s", c, strings.Join(byCategory[c], ", "))
		}
	}

	b.WriteString("\n\nPuedes reformular la pregunta o consultar por alguna de estas marcas.")
	return b.String()
}

// Disclaimer notes that the answer is about other entities than requested.
func (v *Validator) Disclaimer(check RelevanceCheck) string {
	requested := ""
	if check.RequestedEntity != nil {
		requested = check.RequestedEntity.Name
	}
	return fmt.Sprintf("Aviso: preguntaste por %s, pero esta respuesta se basa en información sobre %s y puede no aplicar directamente.",
		requested, strings.Join(check.MentionedNames(), ", "))
}

// Reconcile produces the final answer text.
//
// Substituted: the check is not relevant, so the honest response replaces
// the answer. Disclaimed: an entity was requested, the answer names only
// other entities, yet the check passed because the answer also admits
// missing data; the original is kept under a disclaimer. Anything else
// passes through unchanged.
func (v *Validator) Reconcile(answer string, check RelevanceCheck) (string, Outcome) {
	if check.ShouldShowHonestResponse && check.RequestedEntity != nil {
		return v.BuildHonestResponse(*check.RequestedEntity, check.MentionedEntities), OutcomeSubstituted
	}

	if check.RequestedEntity != nil && !check.RequestedMentioned && len(check.MentionedEntities) > 0 {
		return v.Disclaimer(check) + "\n\n---\n\n" + answer, OutcomeDisclaimed
	}

	return answer, OutcomePassThrough
}
