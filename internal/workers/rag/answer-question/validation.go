package answerquestion

import "rag-brand-guard/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "minLength": 1, "maxLength": 4000}
	}
}`)
