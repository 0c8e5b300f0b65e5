package enhancer

import (
	"strings"
	"unicode"

	"rag-brand-guard/internal/brand/normalizer"
)

// Intent is the classified purpose of a query.
type Intent string

const (
	IntentOpportunities Intent = "opportunities"
	IntentPositioning   Intent = "positioning"
	IntentPerception    Intent = "perception"
	IntentComparison    Intent = "comparison"
	IntentPerformance   Intent = "performance"
	IntentGeneral       Intent = "general"
)

// intentVocabulary is listed in priority order. Prefixes match at the start
// of a word, words must match a whole word. Words starting with an except
// entry are invisible to that intent. Terms are accent-free.
var intentVocabulary = []struct {
	intent   Intent
	prefixes []string
	words    []string
	except   []string
}{
	{
		intent:   IntentOpportunities,
		prefixes: []string{"oportunidad", "opportunit", "potencial", "crecer", "crecimiento", "growth", "espacio blanco", "white space"},
		except:   []string{"potencialmente"},
	},
	{
		intent:   IntentPositioning,
		prefixes: []string{"posicion", "position", "compite", "compete", "competencia", "competidor", "competitor"},
		words:    []string{"vs", "versus"},
	},
	{
		intent:   IntentPerception,
		prefixes: []string{"percepcion", "percib", "perception", "perceive", "opinan", "opinion", "piensan", "imagen", "reputacion", "valoran"},
	},
	{
		intent:   IntentComparison,
		prefixes: []string{"compar", "diferencia", "mejor que", "peor que", "frente a", "differen", "better than"},
		except:   []string{"compart", "comparsa"},
	},
	{
		intent:   IntentPerformance,
		prefixes: []string{"desempeno", "rendimiento", "performance", "ventas", "venta", "share", "participacion", "resultado", "kpi"},
	},
}

// ClassifyIntent returns the first intent, in priority order, whose
// vocabulary appears in query. Queries matching nothing are general.
func ClassifyIntent(query string) Intent {
	words := strings.Fields(wordsOnly(query))
	for _, v := range intentVocabulary {
		padded := " " + strings.Join(without(words, v.except), " ") + " "
		for _, p := range v.prefixes {
			if strings.Contains(padded, " "+p) {
				return v.intent
			}
		}
		for _, w := range v.words {
			if strings.Contains(padded, " "+w+" ") {
				return v.intent
			}
		}
	}
	return IntentGeneral
}

func without(words, except []string) []string {
	if len(except) == 0 {
		return words
	}
	kept := make([]string, 0, len(words))
next:
	for _, w := range words {
		for _, e := range except {
			if strings.HasPrefix(w, e) {
				continue next
			}
		}
		kept = append(kept, w)
	}
	return kept
}

// wordsOnly folds and lowercases s and collapses every run of non word
// characters into a single space.
func wordsOnly(s string) string {
	folded := normalizer.FoldLower(s)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
