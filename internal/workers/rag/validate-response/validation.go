package validateresponse

import "rag-brand-guard/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["query", "answer"],
	"properties": {
		"query": {"type": "string", "minLength": 1},
		"answer": {"type": "string"}
	}
}`)
