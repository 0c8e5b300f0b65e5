package enhancequery

import "rag-brand-guard/internal/models"

type Input struct {
	Query   string `json:"query"`
	Attempt int    `json:"attempt"`
}

type Output struct {
	DetectedEntity  string                 `json:"detectedEntity"`
	AlsoDetected    []string               `json:"alsoDetected"`
	Intent          string                 `json:"intent"`
	Strategy        string                 `json:"strategy"`
	EnhancedQuery   string                 `json:"enhancedQuery"`
	SearchTerms     string                 `json:"searchTerms"`
	RetrievalConfig models.RetrievalConfig `json:"retrievalConfig"`
	Rationale       string                 `json:"rationale"`
	Attempt         int                    `json:"attempt"`
}
