package registry

// EntityRegistry is the versionable document describing every entity the
// gateway knows about. It is authored as JSON and read once at start.
type EntityRegistry struct {
	Version       string              `json:"version"`
	LastUpdated   string              `json:"lastUpdated"`
	Market        string              `json:"market"`
	Retrieval     RetrievalDefaults   `json:"retrieval"`
	Entities      []Entity            `json:"entities"`
	LowCoverage   []LowCoverageEntity `json:"lowCoverage"`
	StudyTerms    []StudyTerm         `json:"studyTerms,omitempty"`
	NoInfoPhrases []string            `json:"noInfoPhrases,omitempty"`
	InsightTerms  []string            `json:"insightTerms,omitempty"`
}

// RetrievalDefaults carries the recall-biasing numbers used for low-coverage
// entities. Zero values are replaced by the service configuration.
type RetrievalDefaults struct {
	BoostedMaxChunks           int     `json:"boostedMaxChunks,omitempty"`
	LoweredSimilarityThreshold float64 `json:"loweredSimilarityThreshold,omitempty"`
	MarketQualifier            string  `json:"marketQualifier,omitempty"`
}

// Entity is a tracked brand with its spelling variants.
type Entity struct {
	Key            string   `json:"key"`
	Canonical      string   `json:"canonical"`
	Category       string   `json:"category"`
	Aliases        []string `json:"aliases,omitempty"`
	PluralTolerant bool     `json:"pluralTolerant"`
	SearchContext  []string `json:"searchContext,omitempty"`
}

// LowCoverageEntity is an enhancement catalog entry.
type LowCoverageEntity struct {
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Aliases         []string `json:"aliases,omitempty"`
	Competitors     []string `json:"competitors"`
	ContextualTerms []string `json:"contextualTerms"`
	ExampleIntents  []string `json:"exampleIntents,omitempty"`
	Strategy        string   `json:"strategy"`
}

// StudyTerm collapses research-methodology phrases into one token.
type StudyTerm struct {
	Token   string   `json:"token"`
	Phrases []string `json:"phrases"`
}

// Strategy tags accepted in lowCoverage entries.
const (
	StrategyCompetitive   = "competitive"
	StrategyContextual    = "contextual"
	StrategyComprehensive = "comprehensive"
)

// DocumentSchema is the JSON schema every registry document must satisfy.
const DocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "entities", "lowCoverage"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "lastUpdated": {"type": "string"},
    "market": {"type": "string"},
    "retrieval": {
      "type": "object",
      "properties": {
        "boostedMaxChunks": {"type": "integer", "minimum": 1},
        "loweredSimilarityThreshold": {"type": "number", "minimum": 0, "maximum": 1},
        "marketQualifier": {"type": "string"}
      }
    },
    "entities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["key", "canonical", "category"],
        "properties": {
          "key": {"type": "string", "pattern": "^[a-z0-9_-]+$"},
          "canonical": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "aliases": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "pluralTolerant": {"type": "boolean"},
          "searchContext": {"type": "array", "items": {"type": "string", "minLength": 1}}
        }
      }
    },
    "lowCoverage": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["key", "name", "category", "competitors", "contextualTerms", "strategy"],
        "properties": {
          "key": {"type": "string", "pattern": "^[a-z0-9_-]+$"},
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "aliases": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "competitors": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "contextualTerms": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "exampleIntents": {"type": "array", "items": {"type": "string"}},
          "strategy": {"type": "string", "enum": ["competitive", "contextual", "comprehensive"]}
        }
      }
    },
    "studyTerms": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["token", "phrases"],
        "properties": {
          "token": {"type": "string", "pattern": "^[a-z0-9_]+$"},
          "phrases": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
        }
      }
    },
    "noInfoPhrases": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "insightTerms": {"type": "array", "items": {"type": "string", "minLength": 1}}
  }
}`
