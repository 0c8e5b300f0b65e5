package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrRegistryInvalid = errors.New("CATALOG_INVALID")
)

// LoadRegistry reads and validates a registry document from disk.
func LoadRegistry(path string) (*EntityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw JSON against DocumentSchema, decodes it and runs the
// cross-reference checks the schema cannot express.
func Parse(data []byte) (*EntityRegistry, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var reg EntityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRegistryInvalid, err)
	}

	if err := reg.Check(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ValidateDocument checks raw JSON against DocumentSchema.
func ValidateDocument(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(DocumentSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryInvalid, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrRegistryInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// Check enforces unique keys and that every low-coverage entry is also a
// known entity, so the validator can always see what the enhancer boosts.
func (r *EntityRegistry) Check() error {
	known := make(map[string]bool, len(r.Entities))
	for _, e := range r.Entities {
		if known[e.Key] {
			return fmt.Errorf("%w: duplicate entity key %q", ErrRegistryInvalid, e.Key)
		}
		known[e.Key] = true
	}

	seen := make(map[string]bool, len(r.LowCoverage))
	for _, lc := range r.LowCoverage {
		if seen[lc.Key] {
			return fmt.Errorf("%w: duplicate lowCoverage key %q", ErrRegistryInvalid, lc.Key)
		}
		seen[lc.Key] = true

		if !known[lc.Key] {
			return fmt.Errorf("%w: lowCoverage key %q is not a known entity", ErrRegistryInvalid, lc.Key)
		}
		switch lc.Strategy {
		case StrategyCompetitive, StrategyContextual, StrategyComprehensive:
		default:
			return fmt.Errorf("%w: entity %q has unknown strategy %q", ErrRegistryInvalid, lc.Key, lc.Strategy)
		}
	}

	tokens := make(map[string]bool, len(r.StudyTerms))
	for _, st := range r.StudyTerms {
		if tokens[st.Token] {
			return fmt.Errorf("%w: duplicate study term token %q", ErrRegistryInvalid, st.Token)
		}
		tokens[st.Token] = true
	}
	return nil
}

// Entity returns the known entity with the given key.
func (r *EntityRegistry) Entity(key string) (Entity, bool) {
	for _, e := range r.Entities {
		if e.Key == key {
			return e, true
		}
	}
	return Entity{}, false
}

// Marshal renders the document as indented JSON.
func (r *EntityRegistry) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
