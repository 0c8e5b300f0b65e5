package normalizer

import "strings"

var apostropheStyles = []string{"'", "´", "`", ""}

// GenerateSearchVariations renders a query about an entity with registered
// search context in several surface forms: the query itself, one rendering
// per apostrophe style, an unaccented copy, the normalized query and up to
// two copies augmented with the entity's context tokens. The result is
// deduplicated and keeps first-seen order. Queries without such an entity
// yield just the query.
func (n *Normalizer) GenerateSearchVariations(query string) []string {
	rule, span, ok := n.firstFlagged(query)
	if !ok {
		return []string{query}
	}

	out := newOrderedSet()
	out.add(query)

	for _, style := range apostropheStyles {
		out.add(query[:span[0]] + renderApostrophe(rule.Canonical, style) + query[span[1]:])
	}
	out.add(Fold(query))

	normalized := n.NormalizeQuery(query)
	out.add(normalized)

	ctx := rule.SearchContext
	out.add(normalized + " " + ctx[0])
	if len(ctx) > 1 {
		end := len(ctx)
		if end > 3 {
			end = 3
		}
		out.add(normalized + " " + strings.Join(ctx[1:end], " "))
	}
	return out.items
}

func (n *Normalizer) firstFlagged(query string) (Rule, [2]int, bool) {
	var (
		found Rule
		span  [2]int
		ok    bool
	)
	if n.table == nil {
		return found, span, false
	}
	scan(n.table.pattern, query, func(loc []int) bool {
		idx := n.table.row(loc)
		if idx < 0 || len(n.rules[idx].SearchContext) == 0 {
			return true
		}
		found, span, ok = n.rules[idx], [2]int{loc[0], loc[1]}, true
		return false
	})
	return found, span, ok
}

func renderApostrophe(canonical, style string) string {
	var b strings.Builder
	for _, r := range canonical {
		if isApostrophe(r) {
			b.WriteString(style)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
