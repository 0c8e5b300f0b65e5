package models

// RetrievalConfig is sent to the retrieval backend next to the query.
type RetrievalConfig struct {
	MaxChunks           int      `json:"max_chunks"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
	CompetitorList      []string `json:"competitor_list"`
	Category            string   `json:"category"`
}

// BackendRequest is the body posted to the retrieval backend.
type BackendRequest struct {
	Query  string          `json:"query"`
	Config RetrievalConfig `json:"config"`
}

// Citation is one retrieved source backing an answer.
type Citation struct {
	SourceName      string  `json:"source_name"`
	Excerpt         string  `json:"excerpt"`
	SimilarityScore float64 `json:"similarity_score"`
}

// BackendResponse is what the retrieval backend returns. Missing fields
// decode to their zero values.
type BackendResponse struct {
	Answer          string     `json:"answer"`
	Citations       []Citation `json:"citations"`
	ChunksRetrieved int        `json:"chunks_retrieved"`
}

// Sanitize replaces values a misbehaving backend may send with safe zeros.
func (r *BackendResponse) Sanitize() *BackendResponse {
	if r.Citations == nil {
		r.Citations = []Citation{}
	}
	if r.ChunksRetrieved < 0 {
		r.ChunksRetrieved = 0
	}
	for i := range r.Citations {
		switch s := r.Citations[i].SimilarityScore; {
		case s < 0:
			r.Citations[i].SimilarityScore = 0
		case s > 1:
			r.Citations[i].SimilarityScore = 1
		}
	}
	return r
}
