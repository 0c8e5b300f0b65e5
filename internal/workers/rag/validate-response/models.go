package validateresponse

import "rag-brand-guard/internal/brand/validator"

type Input struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

type Output struct {
	RelevanceCheck validator.RelevanceCheck `json:"relevanceCheck"`
	FinalAnswer    string                   `json:"finalAnswer"`
	Outcome        validator.Outcome        `json:"outcome"`
}
