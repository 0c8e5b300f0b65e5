// Package catalog exposes the low-coverage entity profiles consulted by the
// query enhancer. Profiles are read once from a registry document and never
// change afterwards.
package catalog

import (
	_ "embed"

	"rag-brand-guard/pkg/registry"
)

//go:embed data/registry.json
var defaultDocument []byte

// Strategy is the style of context appended to a query.
type Strategy string

const (
	StrategyCompetitive   Strategy = registry.StrategyCompetitive
	StrategyContextual    Strategy = registry.StrategyContextual
	StrategyComprehensive Strategy = registry.StrategyComprehensive
)

// EntityProfile is a catalog entry. Competitors are ordered by precedence.
type EntityProfile struct {
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Aliases         []string `json:"aliases,omitempty"`
	PluralTolerant  bool     `json:"pluralTolerant"`
	Competitors     []string `json:"competitors"`
	ContextualTerms []string `json:"contextualTerms"`
	ExampleIntents  []string `json:"exampleIntents,omitempty"`
	Strategy        Strategy `json:"strategy"`
}

// PrimaryCompetitors returns up to n competitors in precedence order.
func (p *EntityProfile) PrimaryCompetitors(n int) []string {
	return head(p.Competitors, n)
}

// TopContextualTerms returns up to n contextual terms in authoring order.
func (p *EntityProfile) TopContextualTerms(n int) []string {
	return head(p.ContextualTerms, n)
}

// Names returns the display name followed by the aliases.
func (p *EntityProfile) Names() []string {
	return append([]string{p.Name}, p.Aliases...)
}

func head(list []string, n int) []string {
	if n > len(list) {
		n = len(list)
	}
	if n <= 0 {
		return nil
	}
	return append([]string(nil), list[:n]...)
}

// Catalog is the read-only profile table.
type Catalog struct {
	profiles        []EntityProfile
	byKey           map[string]int
	retrieval       registry.RetrievalDefaults
	market          string
	insightTerms    []string
	registryVersion string
}

// New builds a catalog from a validated registry.
func New(reg *registry.EntityRegistry) *Catalog {
	c := &Catalog{
		profiles:        make([]EntityProfile, 0, len(reg.LowCoverage)),
		byKey:           make(map[string]int, len(reg.LowCoverage)),
		retrieval:       reg.Retrieval,
		market:          reg.Market,
		insightTerms:    append([]string(nil), reg.InsightTerms...),
		registryVersion: reg.Version,
	}

	for _, lc := range reg.LowCoverage {
		pluralTolerant := false
		if e, ok := reg.Entity(lc.Key); ok {
			pluralTolerant = e.PluralTolerant
		}
		c.byKey[lc.Key] = len(c.profiles)
		c.profiles = append(c.profiles, EntityProfile{
			Key:             lc.Key,
			Name:            lc.Name,
			Category:        lc.Category,
			Aliases:         append([]string(nil), lc.Aliases...),
			PluralTolerant:  pluralTolerant,
			Competitors:     append([]string(nil), lc.Competitors...),
			ContextualTerms: append([]string(nil), lc.ContextualTerms...),
			ExampleIntents:  append([]string(nil), lc.ExampleIntents...),
			Strategy:        Strategy(lc.Strategy),
		})
	}
	return c
}

// Lookup returns the profile with the given key. The returned profile is
// shared and must not be modified.
func (c *Catalog) Lookup(key string) (*EntityProfile, bool) {
	idx, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	return &c.profiles[idx], true
}

// Profiles returns every profile in authoring order, which is also the
// detection precedence.
func (c *Catalog) Profiles() []*EntityProfile {
	out := make([]*EntityProfile, len(c.profiles))
	for i := range c.profiles {
		out[i] = &c.profiles[i]
	}
	return out
}

// Len returns the number of profiles.
func (c *Catalog) Len() int {
	return len(c.profiles)
}

// Retrieval returns the registry's recall-biasing defaults.
func (c *Catalog) Retrieval() registry.RetrievalDefaults {
	return c.retrieval
}

// Market returns the market the registry was authored for.
func (c *Catalog) Market() string {
	return c.market
}

// InsightTerms returns the vocabulary that marks an answer as insightful.
func (c *Catalog) InsightTerms() []string {
	return append([]string(nil), c.insightTerms...)
}

// Version returns the registry document version.
func (c *Catalog) Version() string {
	return c.registryVersion
}

// DefaultDocument returns a copy of the embedded registry document.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}

// DefaultRegistry parses the embedded registry document.
func DefaultRegistry() (*registry.EntityRegistry, error) {
	return registry.Parse(defaultDocument)
}

// LoadRegistry reads path, or the embedded document when path is empty.
func LoadRegistry(path string) (*registry.EntityRegistry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	return registry.LoadRegistry(path)
}
