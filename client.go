package pact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

var queryEncoder = schema.NewEncoder()

// Call is the uniform invocation argument accepted by every client function.
type Call struct {
	// Body is serialized as JSON for POST and PUT. GET and DELETE never send
	// a body regardless of what is supplied here.
	Body any

	// PathParams supplies a value for every {param} placeholder in the
	// endpoint's path template. Values are URL-escaped on substitution.
	PathParams map[string]string

	// Headers are added to the outbound request before signing.
	Headers map[string]string

	// Query is either url.Values or a struct encoded via gorilla/schema tags.
	Query any
}

// ClientFunction is the invocable handle for one endpoint, paired with the
// descriptor an enumeration layer reads. The pair replaces attribute-laden
// callables: inspection never requires reflecting over the function itself.
type ClientFunction struct {
	Descriptor Descriptor

	client   *Client
	endpoint *Endpoint
}

// Client holds one generated function per endpoint in a registry.
type Client struct {
	baseURL      string
	fns          map[string]*ClientFunction
	logger       *slog.Logger
	inv          *invoker
	interceptors []CallInterceptor
	sourceFn     string
}

// ClientOption configures a client at construction.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.inv.hc = hc }
}

// WithSigner sets the request signer. Without one, requests go out unsigned.
func WithSigner(s Signer) ClientOption {
	return func(c *Client) { c.inv.signer = s }
}

// WithLogger sets the logger for invocation and transport logs.
// If not set, slog.Default() will be used.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithAllowedStatuses replaces the allow-list of tolerated non-2xx statuses.
// The default tolerates only 404.
func WithAllowedStatuses(codes ...int) ClientOption {
	return func(c *Client) {
		c.inv.allowed = make(map[int]bool, len(codes))
		for _, code := range codes {
			c.inv.allowed[code] = true
		}
	}
}

// WithSourceFn sets the caller identity carried in the sourceFn header.
// The default is the AWS_LAMBDA_FUNCTION_NAME environment variable.
func WithSourceFn(name string) ClientOption {
	return func(c *Client) { c.sourceFn = name }
}

// WithCallInterceptor adds an interceptor around every invocation's send
// stage. Interceptors run in the order added.
func WithCallInterceptor(i CallInterceptor) ClientOption {
	return func(c *Client) { c.interceptors = append(c.interceptors, i) }
}

// NewClient generates one ClientFunction per endpoint in the registry.
func NewClient(reg *Registry, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		fns:      make(map[string]*ClientFunction),
		sourceFn: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		inv: &invoker{
			hc:      &http.Client{},
			allowed: map[int]bool{http.StatusNotFound: true},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.inv.logger = c.logger

	for _, name := range reg.Names() {
		e, _ := reg.Get(name)
		c.fns[name] = &ClientFunction{
			Descriptor: e.Descriptor(),
			client:     c,
			endpoint:   e,
		}
	}
	return c
}

// Fn returns the generated function for an endpoint name.
func (c *Client) Fn(name string) (*ClientFunction, bool) {
	f, ok := c.fns[name]
	return f, ok
}

// Functions returns every generated function keyed by endpoint name. The
// returned map is a copy; the descriptors inside are shared read-only.
func (c *Client) Functions() map[string]*ClientFunction {
	out := make(map[string]*ClientFunction, len(c.fns))
	for k, v := range c.fns {
		out[k] = v
	}
	return out
}

// Call invokes the named endpoint.
func (c *Client) Call(ctx context.Context, name string, call Call) (*Response, error) {
	f, ok := c.fns[name]
	if !ok {
		return nil, fmt.Errorf("pact: unknown endpoint %q", name)
	}
	return f.Invoke(ctx, call)
}

// Invoke runs the full outbound path: request validation, path substitution,
// signing, transport, and response validation.
//
// Validation is deliberately asymmetric. A body that fails the request schema
// aborts before anything reaches the wire; a response that fails the response
// schema is logged and returned as-is, because a caller should never block on
// an unexpected but parseable server response shape.
func (f *ClientFunction) Invoke(ctx context.Context, call Call) (*Response, error) {
	e := f.endpoint
	c := f.client

	if e.requestRS != nil && call.Body != nil {
		generic, err := generalize(call.Body)
		if err != nil {
			return nil, err
		}
		if verr := validatePayload(e.requestRS, e.name, KindRequest, generic); verr != nil {
			return nil, verr
		}
	}

	path, err := substitutePath(e, call.PathParams)
	if err != nil {
		return nil, err
	}

	query, err := encodeQuery(call.Query)
	if err != nil {
		return nil, fmt.Errorf("pact: endpoint %q: %w", e.name, err)
	}

	rawURL := c.baseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	var body []byte
	sendsBody := e.method == http.MethodPost || e.method == http.MethodPut
	if sendsBody && call.Body != nil {
		body, err = json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("pact: endpoint %q: serialize body: %w", e.name, err)
		}
	}

	headers := make(http.Header)
	for k, v := range call.Headers {
		headers.Set(k, v)
	}
	if len(body) > 0 {
		headers.Set("Content-Type", "application/json")
	}
	if c.sourceFn != "" {
		headers.Set("sourceFn", c.sourceFn)
	}

	info := &CallInfo{
		Endpoint: e.name,
		Method:   e.method,
		URL:      rawURL,
		CallID:   uuid.NewString(),
	}

	send := func(ctx context.Context) (*Response, error) {
		return c.inv.send(ctx, e.method, rawURL, headers, body)
	}

	start := time.Now()
	var resp *Response
	if chain := chainCallInterceptors(c.interceptors); chain != nil {
		resp, err = chain(ctx, info, send)
	} else {
		resp, err = send(ctx)
	}
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("endpoint call failed",
			slog.String("endpoint", e.name),
			slog.String("method", e.method),
			slog.String("url", rawURL),
			slog.String("callId", info.CallID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return nil, err
	}

	c.logger.Info("endpoint call completed",
		slog.String("endpoint", e.name),
		slog.String("method", e.method),
		slog.String("url", rawURL),
		slog.String("callId", info.CallID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration))

	f.checkResponse(resp)
	return resp, nil
}

// checkResponse validates the response body against the response schema.
// Failures are logged, never returned.
func (f *ClientFunction) checkResponse(resp *Response) {
	e := f.endpoint
	if e.responseRS == nil || len(resp.Body) == 0 {
		return
	}
	var generic any
	if err := json.Unmarshal(resp.Body, &generic); err != nil {
		f.client.logger.Warn("response body is not JSON",
			slog.String("endpoint", e.name),
			slog.Any("error", err))
		return
	}
	if verr := validatePayload(e.responseRS, e.name, KindResponse, generic); verr != nil {
		f.client.logger.Warn("response failed schema validation",
			slog.String("endpoint", e.name),
			slog.Any("error", verr))
	}
}

// substitutePath resolves every placeholder in the endpoint's template.
// A missing parameter fails loudly; sending a templated literal would leak
// the contract's internals to the remote service.
func substitutePath(e *Endpoint, params map[string]string) (string, error) {
	path := e.path
	for _, p := range e.pathParams {
		v, ok := params[p]
		if !ok {
			return "", fmt.Errorf("pact: endpoint %q: %w: %q", e.name, ErrMissingPathParam, p)
		}
		path = strings.ReplaceAll(path, "{"+p+"}", url.PathEscape(v))
	}
	return path, nil
}

// encodeQuery normalizes the Call.Query forms into url.Values.
func encodeQuery(q any) (url.Values, error) {
	switch v := q.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return v, nil
	case map[string]string:
		out := make(url.Values, len(v))
		for k, val := range v {
			out.Set(k, val)
		}
		return out, nil
	default:
		out := make(url.Values)
		if err := queryEncoder.Encode(q, out); err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		return out, nil
	}
}
