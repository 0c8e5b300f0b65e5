package indexcorpus

import "rag-brand-guard/internal/models"

type Input struct {
	Index     string            `json:"index"`
	Documents []models.Document `json:"documents"`
}

type Output struct {
	Index     string   `json:"index"`
	Indexed   int      `json:"indexed"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIds"`
}
