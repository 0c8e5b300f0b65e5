package normalizetext

import "rag-brand-guard/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string"},
		"mode": {"type": "string", "enum": ["query", "content"]}
	}
}`)
