package pact

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema is the declarative payload description attached to an endpoint.
// It is a plain JSON Schema; the same document drives client-side and
// server-side validation, so the two agree by construction.
type Schema = jsonschema.Schema

// ParseSchema decodes a JSON Schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("pact: parse schema: %w", err)
	}
	return &s, nil
}

// MustSchema is ParseSchema for static catalogs; it panics on a malformed
// document.
func MustSchema(text string) *Schema {
	s, err := ParseSchema([]byte(text))
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaFor derives a schema from a Go type's structure and jsonschema tags.
func SchemaFor[T any]() (*Schema, error) {
	return jsonschema.For[T](nil)
}

// validatePayload checks value against a resolved schema. A nil result means
// the payload conforms. Validation is all-or-nothing; there is no partial
// application of a payload.
func validatePayload(rs *jsonschema.Resolved, endpoint string, kind PayloadKind, value any) *ValidationError {
	if rs == nil {
		return nil
	}
	err := rs.Validate(value)
	if err == nil {
		return nil
	}
	return &ValidationError{
		Endpoint:   endpoint,
		Kind:       kind,
		Violations: []Violation{{Message: err.Error()}},
	}
}

// generalize converts an arbitrary Go value into the generic JSON form the
// schema validator operates on. Parse failures here are marshal errors, not
// validation errors; the two stay distinct.
func generalize(v any) (any, error) {
	switch v.(type) {
	case nil:
		return nil, nil
	case map[string]any, []any:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("pact: serialize payload: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("pact: reparse payload: %w", err)
	}
	return out, nil
}
