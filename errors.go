package pact

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingPathParam reports a call that did not supply a value for a
// placeholder in the endpoint's path template. Wrapped errors carry the
// endpoint and parameter name; match with errors.Is.
var ErrMissingPathParam = errors.New("missing path parameter")

// PayloadKind distinguishes which side of an exchange failed validation.
type PayloadKind string

const (
	KindRequest  PayloadKind = "request"
	KindResponse PayloadKind = "response"
)

// Violation is a single field-level schema violation.
type Violation struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ValidationError reports a payload that failed schema validation.
// Request-side validation errors abort the call before anything reaches the
// wire; response-side validation never surfaces as a ValidationError on the
// client path (it is logged instead).
type ValidationError struct {
	Endpoint   string
	Kind       PayloadKind
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Path != "" {
			msgs = append(msgs, v.Path+": "+v.Message)
			continue
		}
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("pact: %s %s validation failed: %s", e.Endpoint, e.Kind, strings.Join(msgs, "; "))
}

// TransportError reports a response whose status is neither 2xx nor in the
// caller's allow-list. It carries the raw body text so callers can surface
// the remote failure without a second round trip.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pact: request failed: %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// TemplateError reports a malformed path template at endpoint definition
// time. The only malformation is an unterminated placeholder.
type TemplateError struct {
	Path string
	Pos  int
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("pact: unterminated placeholder in path template %q at offset %d", e.Path, e.Pos)
}
