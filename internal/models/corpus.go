package models

// Document is a corpus entry submitted for indexing.
type Document struct {
	ID         string            `json:"id"`
	SourceName string            `json:"sourceName"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// IndexResult summarizes a bulk indexing request.
type IndexResult struct {
	Indexed   int      `json:"indexed"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIds,omitempty"`
}
