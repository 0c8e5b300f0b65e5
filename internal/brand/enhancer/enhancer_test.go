package enhancer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-brand-guard/internal/brand/catalog"
)

func newTestEnhancer(t *testing.T) (*Enhancer, *catalog.Catalog) {
	t.Helper()
	reg, err := catalog.DefaultRegistry()
	require.NoError(t, err)
	cat := catalog.New(reg)
	e, err := New(cat, Options{})
	require.NoError(t, err)
	return e, cat
}

func profile(t *testing.T, cat *catalog.Catalog, key string) *catalog.EntityProfile {
	t.Helper()
	p, ok := cat.Lookup(key)
	require.True(t, ok, key)
	return p
}

func TestNew_ResolvesOptions(t *testing.T) {
	e, _ := newTestEnhancer(t)
	opts := e.Options()

	assert.Equal(t, 8, opts.DefaultMaxChunks)
	assert.Equal(t, 15, opts.BoostedMaxChunks)
	assert.InDelta(t, 0.7, opts.DefaultSimilarityThreshold, 1e-9)
	assert.InDelta(t, 0.5, opts.LoweredSimilarityThreshold, 1e-9)
	assert.Equal(t, "mercado colombiano", opts.MarketQualifier)
}

func TestNew_RejectsNonBiasingNumbers(t *testing.T) {
	reg, err := catalog.DefaultRegistry()
	require.NoError(t, err)
	cat := catalog.New(reg)

	_, err = New(cat, Options{DefaultMaxChunks: 20})
	assert.Error(t, err)

	_, err = New(cat, Options{DefaultSimilarityThreshold: 0.4})
	assert.Error(t, err)
}

func TestDetectEntity(t *testing.T) {
	e, _ := newTestEnhancer(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"canonical", "¿Cómo está posicionada Pond's?", "ponds"},
		{"uppercase without apostrophe", "hablemos de PONDS", "ponds"},
		{"dotted spelling", "P.O.N.D.S en Colombia", "ponds"},
		{"inside an english word", "the market responds well", ""},
		{"catalog order wins", "Fab y Pond's", "ponds"},
		{"catalog order wins regardless of position", "Savital vs Fab", "fab"},
		{"short alias inside word", "¿Cómo van las ventas de la fábrica?", ""},
		{"well covered entity", "Dove en Colombia", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.DetectEntity(tt.query)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Key)
		})
	}
}

func TestDetectEntities(t *testing.T) {
	e, _ := newTestEnhancer(t)

	var keys []string
	for _, p := range e.DetectEntities("Savital vs Fab y ponds") {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"ponds", "fab", "savital"}, keys)
	assert.Empty(t, e.DetectEntities("nada que ver"))
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{"¿Qué oportunidades tiene Pond's?", IntentOpportunities},
		{"¿Cómo está posicionada Pond's?", IntentPositioning},
		{"Fab vs. Ariel", IntentPositioning},
		{"¿Qué opinan los consumidores colombianos?", IntentPerception},
		{"Compara Savital con Pantene", IntentComparison},
		{"¿Cuál es la diferencia entre Fab y Ariel?", IntentComparison},
		{"Ventas de Fruco en 2024", IntentPerformance},
		{"Desempeño de Vasenol", IntentPerformance},
		{"Háblame de Vasenol", IntentGeneral},
		{"", IntentGeneral},
		{"Oportunidad de crecimiento frente a la competencia", IntentOpportunities},
		{"Percepción vs realidad", IntentPositioning},
		{"Aventuras del mercado", IntentGeneral},
		{"¿Cómo compartir info de Fab?", IntentGeneral},
		{"Comparten datos de Savital", IntentGeneral},
		{"Potencialmente, ¿qué opinan?", IntentPerception},
		{"Comparativo de Fab y Ariel", IntentComparison},
		{"Potencial de Fruco", IntentOpportunities},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.query))
		})
	}
}

func TestEnhance_Strategies(t *testing.T) {
	e, cat := newTestEnhancer(t)

	tests := []struct {
		name     string
		key      string
		query    string
		expected string
	}{
		{
			name:     "competitive",
			key:      "fab",
			query:    "¿Cómo compite Fab?",
			expected: "¿Cómo compite Fab? Fab Ariel Ace Dersa comparación competitiva detergentes",
		},
		{
			name:     "contextual",
			key:      "savital",
			query:    "¿Qué perciben de Savital?",
			expected: "¿Qué perciben de Savital? Savital sábila ingredientes naturales brillo control caída cuidado capilar mercado colombiano Pantene",
		},
		{
			name:     "comprehensive",
			key:      "ponds",
			query:    "Pond's en Colombia",
			expected: "Pond's en Colombia Pond's Nivea vs Neutrogena hidratación facial antiedad rutina de cuidado cuidado facial insights mercado",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile(t, cat, tt.key)
			res := e.Enhance(tt.query, p)

			assert.Equal(t, tt.expected, res.Query)
			assert.True(t, res.Enhanced)
			assert.Equal(t, p.Strategy, res.Strategy)
			assert.Equal(t, tt.key, res.EntityKey)
			assert.Contains(t, res.Rationale, string(p.Strategy))
			assert.Equal(t, 15, res.Config.MaxChunks)
			assert.InDelta(t, 0.5, res.Config.SimilarityThreshold, 1e-9)
			assert.Equal(t, p.Competitors, res.Config.CompetitorList)
			assert.Equal(t, p.Category, res.Config.Category)
		})
	}
}

func TestEnhance_EveryProfileNamesEntityAndCompetitor(t *testing.T) {
	e, cat := newTestEnhancer(t)

	for _, p := range cat.Profiles() {
		res := e.Enhance("¿Qué hay de nuevo?", p)
		assert.Contains(t, res.Query, p.Name, p.Key)

		found := false
		for _, c := range p.Competitors {
			if strings.Contains(res.Query, c) {
				found = true
				break
			}
		}
		assert.True(t, found, "%s: no competitor in %q", p.Key, res.Query)
		assert.Greater(t, res.Config.MaxChunks, e.DefaultConfig().MaxChunks)
		assert.Less(t, res.Config.SimilarityThreshold, e.DefaultConfig().SimilarityThreshold)
	}
}

func TestEnhance_PassThrough(t *testing.T) {
	e, _ := newTestEnhancer(t)

	res := e.Enhance("¿Qué opinan los consumidores colombianos?", nil)
	assert.Equal(t, "¿Qué opinan los consumidores colombianos?", res.Query)
	assert.False(t, res.Enhanced)
	assert.Equal(t, IntentPerception, res.Intent)
	assert.Equal(t, e.DefaultConfig(), res.Config)
	assert.NotEmpty(t, res.Rationale)
}

func TestBuildSearchTerms(t *testing.T) {
	e, cat := newTestEnhancer(t)
	ponds := profile(t, cat, "ponds")
	fab := profile(t, cat, "fab")

	assert.Equal(t,
		"Pond's oportunidades crecimiento Nivea Neutrogena cuidado facial",
		e.BuildSearchTerms("¿Qué oportunidades tiene Pond's?", ponds, 1))

	assert.Equal(t, "Fab Ariel Ace detergentes", e.BuildSearchTerms("Háblame de Fab", fab, 1))

	widened := e.BuildSearchTerms("Háblame de Fab", fab, 2)
	assert.Equal(t,
		"Háblame de Fab Fab Ariel Ace Dersa Top Terra poder de limpieza quitamanchas rendimiento por lavada precio por kilo detergentes",
		widened)
	assert.True(t, strings.HasPrefix(widened, "Háblame de Fab"))
	assert.Equal(t, widened, e.BuildSearchTerms("Háblame de Fab", fab, 3))

	assert.Equal(t, "sin entidad", e.BuildSearchTerms("sin entidad", nil, 2))
}

func TestEvaluateQuality(t *testing.T) {
	e, cat := newTestEnhancer(t)
	ponds := profile(t, cat, "ponds")

	tests := []struct {
		name        string
		answer      string
		level       QualityLevel
		suggestions int
	}{
		{"all ingredients", "Pond's lidera frente a Nivea según los consumidores.", QualityExcellent, 0},
		{"entity and competitor", "Pond's frente a Nivea.", QualityGood, 1},
		{"entity and insight", "Pond's muestra una tendencia al alza.", QualityGood, 1},
		{"entity only", "Pond's es una marca.", QualityInsufficient, 2},
		{"no entity", "Nivea domina y los consumidores la prefieren.", QualityInsufficient, 1},
		{"empty", "", QualityInsufficient, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := e.EvaluateQuality(tt.answer, ponds)
			assert.Equal(t, tt.level, report.Level)
			assert.Len(t, report.Suggestions, tt.suggestions)
		})
	}

	report := e.EvaluateQuality("Nivea domina", ponds)
	assert.Contains(t, report.Suggestions, "answer does not mention Pond's")

	report = e.EvaluateQuality("algo", nil)
	assert.Equal(t, QualityInsufficient, report.Level)
	assert.NotEmpty(t, report.Suggestions)
}

func TestQualityLevel_Rank(t *testing.T) {
	assert.Greater(t, QualityExcellent.Rank(), QualityGood.Rank())
	assert.Greater(t, QualityGood.Rank(), QualityInsufficient.Rank())
	assert.Equal(t, 0, QualityLevel("").Rank())
}
