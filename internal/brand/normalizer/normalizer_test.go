package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-brand-guard/internal/brand/catalog"
	"rag-brand-guard/pkg/registry"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	reg, err := catalog.DefaultRegistry()
	require.NoError(t, err)
	n, err := New(reg)
	require.NoError(t, err)
	return n
}

// variantsOf lists the surface forms each registered entity must survive.
func variantsOf(r Rule, aliases []string, pluralTolerant bool) []string {
	base := append([]string{r.Canonical}, aliases...)
	var out []string
	for _, v := range base {
		out = append(out, v, strings.ToLower(v), strings.ToUpper(v), Fold(v))
		for _, style := range apostropheStyles {
			out = append(out, renderApostrophe(v, style))
		}
	}
	if pluralTolerant {
		stem := trimPossessive(r.Canonical)
		out = append(out, stem, stem+"s")
	}
	return out
}

func TestNormalizeBrandNames(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"missing apostrophe", "¿Cómo está posicionada Ponds?", "¿Cómo está posicionada Pond's?"},
		{"acute and backtick apostrophes", "pond´s y POND`S", "Pond's y Pond's"},
		{"typographic apostrophe", "Pond’s crema", "Pond's crema"},
		{"without trailing s", "campaña de pond", "campaña de Pond's"},
		{"casing", "omo vs fab", "OMO vs Fab"},
		{"accent and spacing", "tresemme y Tres Emme", "TRESemmé y TRESemmé"},
		{"plural", "Doves y más Doves", "Dove y más Dove"},
		{"every occurrence", "OMO, omo y Omo.", "OMO, OMO y OMO."},
		{"punctuation boundaries", "(savital)/vasenol", "(Savital)/Vasenol"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.NormalizeBrandNames(tt.input))
		})
	}
}

func TestNormalizeBrandNames_NoFalseTriggering(t *testing.T) {
	n := newTestNormalizer(t)

	inputs := []string{
		"¿Cómo está el mercado?",
		"Una fábrica fabulosa de cifras",
		"Los taxes del lipstick",
		"sedales, doveland y knorrito",
		"Hablemos de cuidado facial en general",
		"      espacios   y\ttabs\n",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, in, n.NormalizeBrandNames(in))
			assert.Equal(t, in, n.NormalizeQuery(in))
		})
	}
}

func TestNormalize_IdempotentForEveryVariant(t *testing.T) {
	n := newTestNormalizer(t)
	reg, err := catalog.DefaultRegistry()
	require.NoError(t, err)

	for _, e := range reg.Entities {
		rule, ok := n.Lookup(e.Key)
		require.True(t, ok, e.Key)

		for _, v := range variantsOf(rule, e.Aliases, e.PluralTolerant) {
			text := "Reporte de " + v + ", tendencia del concept test."
			once := n.NormalizeQuery(text)
			assert.Equal(t, once, n.NormalizeQuery(once), "variant %q", v)
			assert.Contains(t, once, rule.Canonical, "variant %q", v)
		}
	}
}

func TestNormalize_CanonicalMapsToItself(t *testing.T) {
	n := newTestNormalizer(t)
	for _, r := range n.Rules() {
		assert.Equal(t, r.Canonical, n.NormalizeBrandNames(r.Canonical))
		assert.Equal(t, []string{r.Key}, n.Mentions(r.Canonical))
	}
}

func TestDetectionSymmetry(t *testing.T) {
	n := newTestNormalizer(t)
	reg, err := catalog.DefaultRegistry()
	require.NoError(t, err)

	for _, e := range reg.Entities {
		rule, _ := n.Lookup(e.Key)
		for _, v := range variantsOf(rule, e.Aliases, e.PluralTolerant) {
			text := "¿Qué pasa con " + v + "?"
			if n.ContainsReferences(text, e.Key) {
				assert.Contains(t, n.NormalizeBrandNames(text), e.Canonical, "variant %q", v)
			} else {
				t.Errorf("variant %q of %s was not detected", v, e.Key)
			}
		}
	}
}

func TestDetectionSymmetry_OverlappingAliases(t *testing.T) {
	reg := &registry.EntityRegistry{
		Version: "test",
		Entities: []registry.Entity{
			{Key: "dove", Canonical: "Dove", PluralTolerant: true},
			{Key: "dovemen", Canonical: "Dove Men"},
		},
	}
	n, err := New(reg)
	require.NoError(t, err)

	tests := []struct {
		input    string
		expected string
		mentions []string
	}{
		{"dove men care", "Dove Men care", []string{"dove", "dovemen"}},
		{"DOVE-MEN y doves", "Dove Men y Dove", []string{"dove", "dovemen"}},
		{"dove mentos", "Dove mentos", []string{"dove"}},
		{"solo dove", "solo Dove", []string{"dove"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := n.NormalizeBrandNames(tt.input)
			assert.Equal(t, tt.expected, out)
			for _, r := range n.Rules() {
				if n.ContainsReferences(tt.input, r.Key) {
					assert.Contains(t, out, r.Canonical, "entity %s", r.Key)
				}
			}
			assert.Equal(t, tt.mentions, n.Mentions(tt.input))
		})
	}
}

func TestNormalizeBrandNames_ApostropheRuns(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"upper plural possessive", "PONDS'S", "Pond's"},
		{"doubled apostrophe", "Pond''s", "Pond's"},
		{"possessive keeps its suffix", "la fórmula de rexona's", "la fórmula de Rexona's"},
		{"apostrophe inside another word", "Pond'sa", "Pond'sa"},
		{"elided word after brand", "Pond'ito", "Pond'ito"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.NormalizeBrandNames(tt.input))
		})
	}
}

func TestNormalizeStudyTerms(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		input    string
		expected string
	}{
		{"Resultados del Tracking Post Lanzamiento", "Resultados del tracking_post_lanzamiento"},
		{"tracking post-lanzamiento de Fab", "tracking_post_lanzamiento de Fab"},
		{"el Test de Concepto y el concept test", "el concept_test y el concept_test"},
		{"estudio de U&A", "estudio de usos_y_actitudes"},
		{"dos focus groups", "dos focus_group"},
		{"sin términos de estudio", "sin términos de estudio"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.NormalizeStudyTerms(tt.input))
		})
	}
}

func TestNormalizeQueryAndContent(t *testing.T) {
	n := newTestNormalizer(t)
	in := "Concept test de ponds vs DOVE"
	expected := "concept_test de Pond's vs Dove"

	assert.Equal(t, expected, n.NormalizeQuery(in))
	assert.Equal(t, expected, n.NormalizeContent(in))
}

func TestContainsReferences(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name   string
		text   string
		entity string
		want   bool
	}{
		{"by key", "Hablemos de POND´S", "ponds", true},
		{"by canonical", "Hablemos de ponds", "Pond's", true},
		{"by alias", "tres-emme", "Tres Emme", true},
		{"already normalized", "Hablemos de Pond's", "ponds", true},
		{"unregistered name", "La crema Nivea", "Nivea", true},
		{"inside another word", "¿Cómo van las ventas?", "omo", false},
		{"absent", "Hablemos de Dove", "ponds", false},
		{"empty entity", "algo", "  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.ContainsReferences(tt.text, tt.entity))
		})
	}
}

func TestMentions_TableOrder(t *testing.T) {
	n := newTestNormalizer(t)
	assert.Equal(t, []string{"ponds", "dove", "omo"}, n.Mentions("OMO supera a Dove y a ponds"))
	assert.Empty(t, n.Mentions("nada relevante"))
}

func TestGenerateSearchVariations(t *testing.T) {
	n := newTestNormalizer(t)

	t.Run("flagged entity", func(t *testing.T) {
		got := n.GenerateSearchVariations("¿Qué opinan de ponds en Bogotá?")
		assert.Equal(t, []string{
			"¿Qué opinan de ponds en Bogotá?",
			"¿Qué opinan de Pond's en Bogotá?",
			"¿Qué opinan de Pond´s en Bogotá?",
			"¿Qué opinan de Pond`s en Bogotá?",
			"¿Qué opinan de Ponds en Bogotá?",
			"¿Que opinan de ponds en Bogota?",
			"¿Qué opinan de Pond's en Bogotá? cuidado facial",
			"¿Qué opinan de Pond's en Bogotá? crema hidratante Colombia",
		}, got)
	})

	t.Run("entity without apostrophe", func(t *testing.T) {
		got := n.GenerateSearchVariations("detergente fab")
		assert.Equal(t, []string{
			"detergente fab",
			"detergente Fab",
			"detergente Fab detergente en polvo",
			"detergente Fab lavado de ropa",
		}, got)
	})

	t.Run("no entity", func(t *testing.T) {
		q := "¿Qué opinan los consumidores?"
		assert.Equal(t, []string{q}, n.GenerateSearchVariations(q))
	})

	t.Run("entity without search context", func(t *testing.T) {
		q := "Dove en Colombia"
		assert.Equal(t, []string{q}, n.GenerateSearchVariations(q))
	})
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{"Head & Shoulders"}, false)
	require.NoError(t, err)
	assert.True(t, m.Match("compite con head&shoulders"))
	assert.True(t, m.Match("HEAD & SHOULDERS"))
	assert.False(t, m.Match("headshoulders"))

	spans := m.FindAll("Head & Shoulders y head-& shoulders")
	assert.Len(t, spans, 2)

	_, err = NewMatcher([]string{" ", ""}, false)
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "Creme Brulee", Fold("Crème Brûlée"))
	assert.Equal(t, "pondscreme", Compact("Pond´s Crème"))
	assert.Equal(t, "¿como estas?", FoldLower("¿Cómo Estás?"))
}
