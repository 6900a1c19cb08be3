package annotate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// annotationSchema is the contract the analyst model must honor. Anything
// outside it is a schema violation, not a value judgement.
const annotationSchema = `{
    "type": "array",
    "minItems": 1,
    "items": {
        "type": "object",
        "required": [
            "step_number",
            "timestamp_start",
            "timestamp_end",
            "step_title",
            "visual_description",
            "transcript_context",
            "instruments",
            "anatomy"
        ],
        "properties": {
            "step_number": {"type": "integer", "minimum": 1},
            "timestamp_start": {"type": "string", "pattern": "^([0-9]{2}:)?[0-9]{2}:[0-9]{2}$"},
            "timestamp_end": {"type": "string", "pattern": "^([0-9]{2}:)?[0-9]{2}:[0-9]{2}$"},
            "step_title": {"type": "string", "minLength": 1},
            "visual_description": {"type": "string", "minLength": 1},
            "transcript_context": {"type": "string"},
            "instruments": {"type": "array", "items": {"type": "string"}},
            "anatomy": {"type": "array", "items": {"type": "string"}}
        },
        "additionalProperties": false
    }
}`

var schemaLoader = gojsonschema.NewStringLoader(annotationSchema)

// ValidateAnnotations checks a generated step array against the contract.
func ValidateAnnotations(payload []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("validate annotations: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("annotations violate schema: %s", strings.Join(problems, "; "))
}

// emptyAnnotations reports whether the payload is a well-formed empty array.
func emptyAnnotations(payload []byte) bool {
	var elements []json.RawMessage
	if err := json.Unmarshal(payload, &elements); err != nil {
		return false
	}
	return len(elements) == 0
}
