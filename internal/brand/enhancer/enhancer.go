// Package enhancer rewrites queries about low-coverage entities so the
// retrieval backend pulls in their competitive and contextual neighborhood.
package enhancer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"rag-brand-guard/internal/brand/catalog"
	"rag-brand-guard/internal/brand/normalizer"
	"rag-brand-guard/internal/models"
)

// minCompactAlias is the shortest compact alias allowed to match without
// word boundaries. Shorter ones collide with ordinary words.
const minCompactAlias = 5

const (
	DefaultMaxChunks           = 8
	DefaultSimilarityThreshold = 0.7
	BoostedMaxChunks           = 15
	LoweredSimilarityThreshold = 0.5
)

// Options holds the retrieval numbers. Zero values fall back to the
// registry retrieval block, then to the package defaults.
type Options struct {
	DefaultMaxChunks           int
	DefaultSimilarityThreshold float64
	BoostedMaxChunks           int
	LoweredSimilarityThreshold float64
	MarketQualifier            string
}

type profileMatcher struct {
	profile     *catalog.EntityProfile
	names       *normalizer.Matcher
	compact     []string
	competitors *normalizer.Matcher
}

// Enhancer is immutable after New and safe for concurrent use.
type Enhancer struct {
	catalog  *catalog.Catalog
	profiles []profileMatcher
	insight  *normalizer.Matcher
	opts     Options
}

// New compiles the catalog's aliases and competitor names.
func New(cat *catalog.Catalog, opts Options) (*Enhancer, error) {
	opts = resolveOptions(cat, opts)
	if opts.BoostedMaxChunks <= opts.DefaultMaxChunks {
		return nil, fmt.Errorf("boosted max chunks %d must exceed default %d", opts.BoostedMaxChunks, opts.DefaultMaxChunks)
	}
	if opts.LoweredSimilarityThreshold >= opts.DefaultSimilarityThreshold {
		return nil, fmt.Errorf("lowered similarity threshold %.2f must be below default %.2f",
			opts.LoweredSimilarityThreshold, opts.DefaultSimilarityThreshold)
	}

	e := &Enhancer{catalog: cat, opts: opts}
	for _, p := range cat.Profiles() {
		names, err := normalizer.NewMatcher(append(p.Names(), p.Key), p.PluralTolerant)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Key, err)
		}
		competitors, err := normalizer.NewMatcher(p.Competitors, false)
		if err != nil {
			return nil, fmt.Errorf("profile %q competitors: %w", p.Key, err)
		}

		var compact []string
		for _, n := range append(p.Names(), p.Key) {
			c := normalizer.Compact(n)
			if utf8.RuneCountInString(c) >= minCompactAlias {
				compact = append(compact, c)
			}
		}
		e.profiles = append(e.profiles, profileMatcher{
			profile:     p,
			names:       names,
			compact:     compact,
			competitors: competitors,
		})
	}

	if terms := cat.InsightTerms(); len(terms) > 0 {
		m, err := normalizer.NewMatcher(terms, false)
		if err != nil {
			return nil, fmt.Errorf("insight terms: %w", err)
		}
		e.insight = m
	}
	return e, nil
}

func resolveOptions(cat *catalog.Catalog, opts Options) Options {
	r := cat.Retrieval()
	if opts.DefaultMaxChunks == 0 {
		opts.DefaultMaxChunks = DefaultMaxChunks
	}
	if opts.DefaultSimilarityThreshold == 0 {
		opts.DefaultSimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.BoostedMaxChunks == 0 {
		opts.BoostedMaxChunks = r.BoostedMaxChunks
	}
	if opts.BoostedMaxChunks == 0 {
		opts.BoostedMaxChunks = BoostedMaxChunks
	}
	if opts.LoweredSimilarityThreshold == 0 {
		opts.LoweredSimilarityThreshold = r.LoweredSimilarityThreshold
	}
	if opts.LoweredSimilarityThreshold == 0 {
		opts.LoweredSimilarityThreshold = LoweredSimilarityThreshold
	}
	if opts.MarketQualifier == "" {
		opts.MarketQualifier = r.MarketQualifier
	}
	if opts.MarketQualifier == "" && cat.Market() != "" {
		opts.MarketQualifier = "mercado " + cat.Market()
	}
	return opts
}

// Options returns the resolved retrieval numbers.
func (e *Enhancer) Options() Options {
	return e.opts
}

// DefaultConfig is the configuration sent for queries that are not enhanced.
func (e *Enhancer) DefaultConfig() models.RetrievalConfig {
	return models.RetrievalConfig{
		MaxChunks:           e.opts.DefaultMaxChunks,
		SimilarityThreshold: e.opts.DefaultSimilarityThreshold,
		CompetitorList:      []string{},
	}
}

// DetectEntity returns the first catalogued profile, in authoring order,
// referenced by query, or nil.
func (e *Enhancer) DetectEntity(query string) *catalog.EntityProfile {
	compactQuery, starts := compactWithStarts(query)
	for _, pm := range e.profiles {
		if pm.mentionedIn(query, compactQuery, starts) {
			return pm.profile
		}
	}
	return nil
}

// DetectEntities returns every catalogued profile referenced by query, in
// authoring order.
func (e *Enhancer) DetectEntities(query string) []*catalog.EntityProfile {
	compactQuery, starts := compactWithStarts(query)
	var out []*catalog.EntityProfile
	for _, pm := range e.profiles {
		if pm.mentionedIn(query, compactQuery, starts) {
			out = append(out, pm.profile)
		}
	}
	return out
}

func (e *Enhancer) matcherFor(p *catalog.EntityProfile) *profileMatcher {
	if p == nil {
		return nil
	}
	for i := range e.profiles {
		if e.profiles[i].profile.Key == p.Key {
			return &e.profiles[i]
		}
	}
	return nil
}

// mentionedIn tries the boundary-anchored matcher first, then long compact
// aliases anchored at a word start, which catches spellings such as
// "P.O.N.D.S".
func (pm *profileMatcher) mentionedIn(text, compactText string, starts map[int]bool) bool {
	if pm.names.Match(text) {
		return true
	}
	for _, alias := range pm.compact {
		offset := 0
		for {
			idx := strings.Index(compactText[offset:], alias)
			if idx < 0 {
				break
			}
			if starts[offset+idx] {
				return true
			}
			_, size := utf8.DecodeRuneInString(compactText[offset+idx:])
			offset += idx + size
		}
	}
	return false
}

// compactWithStarts returns the compact form of s and the byte offsets in
// it where a whitespace-separated word begins.
func compactWithStarts(s string) (string, map[int]bool) {
	var b strings.Builder
	starts := make(map[int]bool)
	inWord := false
	for _, r := range normalizer.FoldLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				starts[b.Len()] = true
				inWord = true
			}
			b.WriteRune(r)
		case unicode.IsSpace(r):
			inWord = false
		}
	}
	return b.String(), starts
}

func joinTerms(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
