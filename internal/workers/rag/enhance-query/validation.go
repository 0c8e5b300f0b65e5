package enhancequery

import "rag-brand-guard/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "minLength": 1},
		"attempt": {"type": "integer", "minimum": 1, "maximum": 2}
	}
}`)
