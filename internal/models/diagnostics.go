package models

import "time"

// Diagnostics is the per-request observability bundle. It is never read
// back to make decisions.
type Diagnostics struct {
	RequestID            string    `json:"request_id"`
	Query                string    `json:"query"`
	DetectedEntity       string    `json:"detected_entity"`
	AlsoDetected         []string  `json:"also_detected,omitempty"`
	Intent               string    `json:"intent"`
	MentionedEntities    []string  `json:"mentioned_entities"`
	RelevanceScore       float64   `json:"relevance_score"`
	EnhancementRationale string    `json:"enhancement_rationale"`
	QualityLevel         string    `json:"quality_level"`
	Attempts             int       `json:"attempts"`
	Outcome              string    `json:"outcome"`
	ChunksRetrieved      int       `json:"chunks_retrieved"`
	CreatedAt            time.Time `json:"created_at"`
}
