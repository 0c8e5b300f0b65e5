package evaluatequality

import "rag-brand-guard/internal/brand/enhancer"

type Input struct {
	Answer    string `json:"answer"`
	EntityKey string `json:"entityKey"`
	Attempt   int    `json:"attempt"`
}

type Output struct {
	Quality     enhancer.QualityReport `json:"quality"`
	ShouldWiden bool                   `json:"shouldWiden"`
}
