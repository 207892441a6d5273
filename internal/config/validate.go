package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ValidateSettings checks the raw settings map against the embedded
// partforge config schema. It runs before decoding into Config so that
// typos and unknown keys surface with schema paths instead of silently
// decoding to zero values.
func ValidateSettings(settings map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewGoLoader(settings)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		msgs = append(msgs, schemaErr.String())
	}
	// Sorted so the error text is stable across runs.
	sort.Strings(msgs)

	return fmt.Errorf("config schema validation failed: %s", strings.Join(msgs, "; "))
}
