package querybackend

import "rag-brand-guard/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "minLength": 1},
		"retrievalConfig": {
			"type": "object",
			"properties": {
				"max_chunks": {"type": "integer", "minimum": 1},
				"similarity_threshold": {"type": "number", "minimum": 0, "maximum": 1},
				"competitor_list": {"type": "array", "items": {"type": "string"}},
				"category": {"type": "string"}
			}
		}
	}
}`)
