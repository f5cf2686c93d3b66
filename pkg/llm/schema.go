package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// ValidateAgainstSchema compiles schemaDoc and checks raw against it.
// Returns the raw document on success, nil on validation failure. Only a
// broken schema document itself is an error.
func ValidateAgainstSchema(schemaDoc, raw []byte) (json.RawMessage, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("compile output schema: %w", err)
	}

	result := schema.ValidateJSON(raw)
	if !result.IsValid() {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// ExtractJSON isolates the first JSON object from a model reply. Models
// routinely wrap JSON in prose or code fences even when told not to.
func ExtractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}
