package evaluatequality

import "rag-brand-guard/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["answer", "entityKey"],
	"properties": {
		"answer": {"type": "string"},
		"entityKey": {"type": "string", "minLength": 1},
		"attempt": {"type": "integer", "minimum": 1}
	}
}`)
