// Package normalizer rewrites spelling variants of known brands and
// research-methodology phrases to one canonical surface form.
//
// All entity patterns live in a single compiled table scanned once per
// input, so a replacement is never seen by another rule. The longest
// bounded alias wins across entities, so an alias that extends another
// entity's alias is never cut short. Every canonical
// form is matched by its own rule, which makes normalization idempotent.
package normalizer

import (
	"fmt"
	"sort"
	"strings"

	"rag-brand-guard/pkg/registry"
)

// Rule is one row of the entity table.
type Rule struct {
	Key           string
	Canonical     string
	Category      string
	SearchContext []string

	matcher *Matcher
}

// Matches reports whether any spelling variant of the rule occurs in text.
func (r Rule) Matches(text string) bool {
	return r.matcher.Match(text)
}

// Normalizer is immutable after New and safe for concurrent use.
type Normalizer struct {
	rules []Rule
	byKey map[string]int
	table *table

	studyTokens []string
	studyTable  *table
}

// New compiles the entity and study-term tables of a registry.
func New(reg *registry.EntityRegistry) (*Normalizer, error) {
	n := &Normalizer{
		rules: make([]Rule, 0, len(reg.Entities)),
		byKey: make(map[string]int, len(reg.Entities)),
	}

	rows := make([][]variant, 0, len(reg.Entities))
	for _, e := range reg.Entities {
		aliases := append([]string{e.Canonical}, e.Aliases...)
		m, err := NewMatcher(aliases, e.PluralTolerant)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Key, err)
		}
		n.byKey[e.Key] = len(n.rules)
		n.rules = append(n.rules, Rule{
			Key:           e.Key,
			Canonical:     e.Canonical,
			Category:      e.Category,
			SearchContext: append([]string(nil), e.SearchContext...),
			matcher:       m,
		})
		rows = append(rows, m.variants)
	}

	entities, err := compileTable(rows)
	if err != nil {
		return nil, fmt.Errorf("entity table: %w", err)
	}
	n.table = entities

	studyRows := make([][]variant, 0, len(reg.StudyTerms))
	for _, st := range reg.StudyTerms {
		vs, err := variants(st.Phrases, false)
		if err != nil {
			return nil, fmt.Errorf("study term %q: %w", st.Token, err)
		}
		n.studyTokens = append(n.studyTokens, st.Token)
		studyRows = append(studyRows, vs)
	}
	studyTable, err := compileTable(studyRows)
	if err != nil {
		return nil, fmt.Errorf("study term table: %w", err)
	}
	n.studyTable = studyTable

	return n, nil
}

// table is one alternation over the variants of every row. Each variant
// has its own capture group; rows maps a group back to its row.
type table struct {
	*pattern
	rows []int
}

func compileTable(rows [][]variant) (*table, error) {
	type entry struct {
		variant
		row int
	}
	var entries []entry
	for row, vs := range rows {
		for _, v := range vs {
			entries = append(entries, entry{variant: v, row: row})
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].length > entries[j].length
	})

	t := &table{rows: make([]int, len(entries))}
	groups := make([]string, len(entries))
	for i, e := range entries {
		groups[i] = "(" + e.pattern + ")"
		t.rows[i] = e.row
	}
	pat, err := compilePattern(strings.Join(groups, "|"))
	if err != nil {
		return nil, err
	}
	t.pattern = pat
	return t, nil
}

// row returns the row of the first participating capture group.
func (t *table) row(loc []int) int {
	for g := 1; 2*g+1 < len(loc); g++ {
		if loc[2*g] >= 0 {
			return t.rows[g-1]
		}
	}
	return -1
}

func replaceAll(t *table, text string, replacement func(idx int) string) string {
	if t == nil || text == "" {
		return text
	}

	var b strings.Builder
	last := 0
	scan(t.pattern, text, func(loc []int) bool {
		idx := t.row(loc)
		if idx < 0 {
			return true
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(replacement(idx))
		last = loc[1]
		return true
	})
	if last == 0 && b.Len() == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// NormalizeBrandNames replaces every variant of every registered entity with
// its canonical form. Text without references is returned unchanged.
func (n *Normalizer) NormalizeBrandNames(text string) string {
	return replaceAll(n.table, text, func(idx int) string {
		return n.rules[idx].Canonical
	})
}

// NormalizeStudyTerms collapses research-methodology phrases into tokens.
func (n *Normalizer) NormalizeStudyTerms(text string) string {
	return replaceAll(n.studyTable, text, func(idx int) string {
		return n.studyTokens[idx]
	})
}

// NormalizeQuery prepares an outbound query.
func (n *Normalizer) NormalizeQuery(text string) string {
	return n.NormalizeStudyTerms(n.NormalizeBrandNames(text))
}

// NormalizeContent prepares corpus content before indexing.
func (n *Normalizer) NormalizeContent(text string) string {
	return n.NormalizeStudyTerms(n.NormalizeBrandNames(text))
}

// ContainsReferences reports whether any spelling variant of entity occurs
// in text. entity may be a registry key, a canonical name or any alias; an
// unregistered name is matched with the same tolerant rules.
func (n *Normalizer) ContainsReferences(text, entity string) bool {
	if r, ok := n.Lookup(entity); ok {
		return r.Matches(text)
	}
	m, err := NewMatcher([]string{entity}, false)
	if err != nil {
		return false
	}
	return m.Match(text)
}

// Lookup resolves a key, canonical name or alias to its rule.
func (n *Normalizer) Lookup(entity string) (Rule, bool) {
	if idx, ok := n.byKey[entity]; ok {
		return n.rules[idx], true
	}
	trimmed := strings.TrimSpace(entity)
	if trimmed == "" {
		return Rule{}, false
	}
	for _, r := range n.rules {
		if FoldLower(r.Canonical) == FoldLower(trimmed) {
			return r, true
		}
	}
	for _, r := range n.rules {
		if spans := r.matcher.FindAll(trimmed); len(spans) == 1 && spans[0] == [2]int{0, len(trimmed)} {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns the entity table in authoring order.
func (n *Normalizer) Rules() []Rule {
	return append([]Rule(nil), n.rules...)
}

// Mentions returns the keys of every entity referenced in text, in table order.
func (n *Normalizer) Mentions(text string) []string {
	var keys []string
	for _, r := range n.rules {
		if r.Matches(text) {
			keys = append(keys, r.Key)
		}
	}
	return keys
}
