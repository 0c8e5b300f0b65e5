package indexcorpus

import "rag-brand-guard/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["documents"],
	"properties": {
		"index": {"type": "string", "pattern": "^[a-z0-9][a-z0-9._-]*$"},
		"documents": {
			"type": "array",
			"minItems": 1,
			"maxItems": 500,
			"items": {
				"type": "object",
				"required": ["sourceName", "content"],
				"properties": {
					"id": {"type": "string"},
					"sourceName": {"type": "string", "minLength": 1},
					"content": {"type": "string"},
					"metadata": {"type": "object", "additionalProperties": {"type": "string"}}
				}
			}
		}
	}
}`)
