// Package testutil provides testing helpers for contract handlers and
// clients. This package is designed to be import-cycle safe and can be used
// from any consumer package.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/martzmakes/pact"
	"github.com/martzmakes/pact/sigv4"
)

// EventBuilder helps construct test events with a fluent API.
type EventBuilder struct {
	evt pact.Event
}

// NewEvent creates a new event builder.
func NewEvent() *EventBuilder {
	return &EventBuilder{evt: pact.Event{
		HTTPMethod:            "GET",
		Path:                  "/",
		Headers:               make(map[string]string),
		PathParameters:        make(map[string]string),
		QueryStringParameters: make(map[string]string),
	}}
}

// GET sets the HTTP method to GET.
func (b *EventBuilder) GET(path string) *EventBuilder {
	b.evt.HTTPMethod = "GET"
	b.evt.Path = path
	return b
}

// POST sets the HTTP method to POST.
func (b *EventBuilder) POST(path string) *EventBuilder {
	b.evt.HTTPMethod = "POST"
	b.evt.Path = path
	return b
}

// DELETE sets the HTTP method to DELETE.
func (b *EventBuilder) DELETE(path string) *EventBuilder {
	b.evt.HTTPMethod = "DELETE"
	b.evt.Path = path
	return b
}

// WithJSON sets the event body as JSON.
func (b *EventBuilder) WithJSON(v any) *EventBuilder {
	data, _ := json.Marshal(v)
	b.evt.Body = string(data)
	b.evt.Headers["Content-Type"] = "application/json"
	return b
}

// WithBody sets the raw event body.
func (b *EventBuilder) WithBody(body string) *EventBuilder {
	b.evt.Body = body
	return b
}

// WithHeader adds a header to the event.
func (b *EventBuilder) WithHeader(key, value string) *EventBuilder {
	b.evt.Headers[key] = value
	return b
}

// WithPathParam adds a path parameter.
func (b *EventBuilder) WithPathParam(key, value string) *EventBuilder {
	b.evt.PathParameters[key] = value
	return b
}

// WithQuery adds a query string parameter.
func (b *EventBuilder) WithQuery(key, value string) *EventBuilder {
	b.evt.QueryStringParameters[key] = value
	return b
}

// Build returns the constructed event.
func (b *EventBuilder) Build() pact.Event {
	return b.evt
}

// RoundTripFunc adapts a function to http.RoundTripper so tests can stub the
// transport without a listener.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// TestCredentials is a fixed credential set for signing in tests.
var TestCredentials = sigv4.Credentials{
	AccessKey:    "AKIDEXAMPLE",
	SecretKey:    "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	SessionToken: "session-token-example",
}

// NewTestSigner returns a signer over TestCredentials.
func NewTestSigner(opts ...sigv4.Option) *sigv4.Signer {
	return sigv4.New(sigv4.StaticProvider{Creds: TestCredentials}, opts...)
}

// AssertStatus checks that the result has the expected status code.
func AssertStatus(t *testing.T, res pact.Result, expected int) {
	t.Helper()
	if res.StatusCode != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, res.StatusCode, res.Body)
	}
}

// AssertJSONResult decodes the result body and compares it with the expected
// value, ignoring formatting differences.
func AssertJSONResult(t *testing.T, res pact.Result, expected any) {
	t.Helper()

	expectedJSON, _ := json.Marshal(expected)
	var expectedData, actualData any
	if err := json.Unmarshal(expectedJSON, &expectedData); err != nil {
		t.Fatalf("failed to marshal expected value: %v", err)
	}
	if err := json.Unmarshal([]byte(res.Body), &actualData); err != nil {
		t.Fatalf("failed to decode result body: %v\nBody: %s", err, res.Body)
	}

	expectedStr, _ := json.MarshalIndent(expectedData, "", "  ")
	actualStr, _ := json.MarshalIndent(actualData, "", "  ")
	if string(expectedStr) != string(actualStr) {
		t.Errorf("result mismatch:\nExpected:\n%s\nActual:\n%s", expectedStr, actualStr)
	}
}

// DecodeJSON decodes the result body into the provided value.
func DecodeJSON(t *testing.T, res pact.Result, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(res.Body), v); err != nil {
		t.Fatalf("failed to decode result: %v\nBody: %s", err, res.Body)
	}
}

// Run invokes an event handler with a background context. Shorthand for
// table-driven handler tests.
func Run(h pact.EventHandler, evt pact.Event) pact.Result {
	return h(context.Background(), evt)
}
