package pact

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Endpoint binds a path template, an HTTP method, and optional request and
// response schemas into one named contract. It is constructed once at process
// start and immutable thereafter; the client and server paths share the same
// value read-only.
type Endpoint struct {
	name        string
	description string
	method      string
	path        string
	pathParams  []string

	requestSchema  *Schema
	responseSchema *Schema
	requestRS      *jsonschema.Resolved
	responseRS     *jsonschema.Resolved
}

// EndpointOption configures an endpoint at definition time.
type EndpointOption func(*Endpoint)

// WithDescription attaches a human-readable description, surfaced through
// the descriptor for catalog enumeration.
func WithDescription(d string) EndpointOption {
	return func(e *Endpoint) { e.description = d }
}

// WithRequestSchema attaches the schema inbound bodies must conform to.
func WithRequestSchema(s *Schema) EndpointOption {
	return func(e *Endpoint) { e.requestSchema = s }
}

// WithResponseSchema attaches the schema response bodies are checked against.
func WithResponseSchema(s *Schema) EndpointOption {
	return func(e *Endpoint) { e.responseSchema = s }
}

// Define constructs an endpoint contract. The path parameter shape is derived
// from the template text alone: every "{name}" placeholder becomes a required
// string parameter, order-preserving on first occurrence, duplicates
// collapsed. Definition is pure; the only failure modes are an unterminated
// placeholder, an unsupported method, and a schema that does not resolve.
func Define(name, method, path string, opts ...EndpointOption) (*Endpoint, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("pact: endpoint %q: unsupported method %q", name, method)
	}

	params, err := pathParams(path)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{
		name:       name,
		method:     method,
		path:       path,
		pathParams: params,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.requestSchema != nil {
		rs, err := e.requestSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("pact: endpoint %q: request schema: %w", name, err)
		}
		e.requestRS = rs
	}
	if e.responseSchema != nil {
		rs, err := e.responseSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("pact: endpoint %q: response schema: %w", name, err)
		}
		e.responseRS = rs
	}
	return e, nil
}

// MustDefine is Define for static catalogs; it panics on error.
func MustDefine(name, method, path string, opts ...EndpointOption) *Endpoint {
	e, err := Define(name, method, path, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Endpoint) Name() string        { return e.name }
func (e *Endpoint) Description() string { return e.description }
func (e *Endpoint) Method() string      { return e.method }
func (e *Endpoint) Path() string        { return e.path }

// PathParams returns the derived path parameter names in template order.
func (e *Endpoint) PathParams() []string {
	out := make([]string, len(e.pathParams))
	copy(out, e.pathParams)
	return out
}

func (e *Endpoint) RequestSchema() *Schema  { return e.requestSchema }
func (e *Endpoint) ResponseSchema() *Schema { return e.responseSchema }

// Descriptor is the introspectable half of an endpoint: everything an
// external enumeration layer needs to describe the call without separately
// maintained bookkeeping.
type Descriptor struct {
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Method         string   `json:"method"`
	Path           string   `json:"path"`
	PathParams     []string `json:"pathParams,omitempty"`
	RequestSchema  *Schema  `json:"requestSchema,omitempty"`
	ResponseSchema *Schema  `json:"responseSchema,omitempty"`
}

// Descriptor returns the endpoint's catalog entry.
func (e *Endpoint) Descriptor() Descriptor {
	return Descriptor{
		Name:           e.name,
		Description:    e.description,
		Method:         e.method,
		Path:           e.path,
		PathParams:     e.PathParams(),
		RequestSchema:  e.requestSchema,
		ResponseSchema: e.responseSchema,
	}
}

// pathParams scans a path template for {name} placeholders.
func pathParams(path string) ([]string, error) {
	var params []string
	seen := make(map[string]bool)
	for i := 0; i < len(path); i++ {
		if path[i] != '{' {
			continue
		}
		end := strings.IndexByte(path[i:], '}')
		if end < 0 {
			return nil, &TemplateError{Path: path, Pos: i}
		}
		name := path[i+1 : i+end]
		if !seen[name] {
			seen[name] = true
			params = append(params, name)
		}
		i += end
	}
	return params, nil
}

// Registry is the named endpoint catalog shared by the client generator and
// the server wrapper. Name uniqueness is the caller's invariant: registering
// the same name twice logs a warning and the last write wins.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]*Endpoint
	logger    *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{endpoints: make(map[string]*Endpoint)}
}

// WithLogger sets the logger used for registration warnings.
// If not set, slog.Default() will be used.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds an endpoint under its name.
func (r *Registry) Register(e *Endpoint) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.endpoints[e.name]; exists {
		logger := r.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("duplicate endpoint registration",
			slog.String("endpoint", e.name),
			slog.String("method", e.method),
			slog.String("path", e.path))
	}
	r.endpoints[e.name] = e
	return r
}

// Get returns the endpoint registered under name.
func (r *Registry) Get(name string) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.endpoints[name]
	return e, ok
}

// Names returns all registered endpoint names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors exports the full catalog for external tooling (documentation,
// tool generation). Entries are sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.endpoints))
	for _, e := range r.endpoints {
		out = append(out, e.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
