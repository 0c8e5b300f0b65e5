package answerquestion

import "rag-brand-guard/internal/models"

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Answer      string             `json:"answer"`
	Outcome     string             `json:"outcome"`
	Diagnostics models.Diagnostics `json:"diagnostics"`
	Attempts    int                `json:"attempts"`
	Citations   []models.Citation  `json:"citations"`
}
