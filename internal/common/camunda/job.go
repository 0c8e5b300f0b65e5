package camunda

import (
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"

	"rag-brand-guard/internal/common/errors"
	"rag-brand-guard/internal/common/validation"
)

// DecodeVariables validates the job variables against schema and decodes
// them into target. Any failure is an INVALID_INPUT error.
func DecodeVariables(job entities.Job, schema *validation.Schema, target interface{}) error {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("unreadable job variables: %v", err))
	}

	if result := schema.Validate(variables); !result.Valid {
		return errors.NewInvalidInputError(result.Summary())
	}

	if err := json.Unmarshal([]byte(job.GetVariables()), target); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("decode job variables: %v", err))
	}
	return nil
}
