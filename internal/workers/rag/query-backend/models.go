package querybackend

import "rag-brand-guard/internal/models"

type Input struct {
	Query           string                  `json:"query"`
	RetrievalConfig *models.RetrievalConfig `json:"retrievalConfig"`
}

type Output struct {
	Answer          string            `json:"answer"`
	Citations       []models.Citation `json:"citations"`
	ChunksRetrieved int               `json:"chunksRetrieved"`
}
