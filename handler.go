package pact

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Event is the inbound request shape supplied by the external request-
// routing collaborator. Body is the raw request body text; an absent body is
// the empty string.
type Event struct {
	Body                  string            `json:"body,omitempty"`
	Headers               map[string]string `json:"headers,omitempty"`
	HTTPMethod            string            `json:"httpMethod"`
	Path                  string            `json:"path"`
	PathParameters        map[string]string `json:"pathParameters,omitempty"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
}

// HandlerInput is the normalized argument bundle business handlers receive.
// Every map is non-nil; an absent body parses to an empty object.
type HandlerInput struct {
	Body       map[string]any
	Headers    map[string]string
	Method     string
	Path       string
	PathParams map[string]string
	Query      map[string]string
}

// HandlerOutput is what a business handler returns. Data is serialized as
// JSON unless it is already a string, in which case it passes through
// unchanged. StatusCode defaults to 200.
type HandlerOutput struct {
	Data       any
	Headers    map[string]string
	StatusCode int
}

// Handler is a business handler bound to one endpoint contract.
type Handler func(ctx context.Context, in *HandlerInput) (*HandlerOutput, error)

// EventHandler is the transport-level function the routing layer dispatches
// to. It never fails: every error becomes a response envelope.
type EventHandler func(ctx context.Context, evt Event) Result

// WrapOption configures the handler wrapper.
type WrapOption func(*wrapper)

// WithWrapLogger sets the logger for handler failures and validation
// warnings. If not set, slog.Default() will be used.
func WithWrapLogger(logger *slog.Logger) WrapOption {
	return func(w *wrapper) { w.logger = logger }
}

type wrapper struct {
	endpoint *Endpoint
	handler  Handler
	logger   *slog.Logger
}

// Wrap binds a business handler to an endpoint contract and returns the
// transport-level function.
//
// Per invocation: the body is parsed as JSON (absence yields an empty
// object), validated against the request schema when one is configured,
// and handed to the handler alongside normalized header/path/query maps.
// The handler's output is validated against the response schema when one is
// configured; a mismatch discards the output in favor of an opaque 500.
// Handler errors and panics collapse to a generic 500 — the wrapper never
// emits a partial response.
func Wrap(e *Endpoint, h Handler, opts ...WrapOption) EventHandler {
	w := &wrapper{endpoint: e, handler: h}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w.handle
}

func (w *wrapper) handle(ctx context.Context, evt Event) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error("handler panicked",
				slog.String("endpoint", w.endpoint.name),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			res = errorResult(http.StatusInternalServerError, unknownErrorBody)
		}
	}()

	body := make(map[string]any)
	if evt.Body != "" {
		if err := json.Unmarshal([]byte(evt.Body), &body); err != nil {
			w.logger.Error("request body is not JSON",
				slog.String("endpoint", w.endpoint.name),
				slog.Any("error", err))
			return errorResult(http.StatusInternalServerError, unknownErrorBody)
		}
		if w.endpoint.requestRS != nil {
			if verr := validatePayload(w.endpoint.requestRS, w.endpoint.name, KindRequest, body); verr != nil {
				w.logger.Error("request failed schema validation",
					slog.String("endpoint", w.endpoint.name),
					slog.Any("error", verr))
				return errorResult(http.StatusInternalServerError, unknownErrorBody)
			}
		}
	}

	in := &HandlerInput{
		Body:       body,
		Headers:    orEmpty(evt.Headers),
		Method:     evt.HTTPMethod,
		Path:       evt.Path,
		PathParams: orEmpty(evt.PathParameters),
		Query:      orEmpty(evt.QueryStringParameters),
	}

	out, err := w.handler(ctx, in)
	if err != nil {
		w.logger.Error("handler failed",
			slog.String("endpoint", w.endpoint.name),
			slog.Any("error", err))
		return errorResult(http.StatusInternalServerError, unknownErrorBody)
	}
	if out == nil {
		out = &HandlerOutput{}
	}

	status := out.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	// Pre-serialized string data bypasses response validation: the handler
	// has already committed to exact bytes.
	if s, ok := out.Data.(string); ok {
		return Result{StatusCode: status, Headers: out.Headers, Body: s}
	}

	encoded, err := json.Marshal(out.Data)
	if err != nil {
		w.logger.Error("response serialization failed",
			slog.String("endpoint", w.endpoint.name),
			slog.Any("error", err))
		return errorResult(http.StatusInternalServerError, unknownErrorBody)
	}

	if w.endpoint.responseRS != nil {
		var generic any
		if err := json.Unmarshal(encoded, &generic); err != nil {
			w.logger.Error("response reparse failed",
				slog.String("endpoint", w.endpoint.name),
				slog.Any("error", err))
			return errorResult(http.StatusInternalServerError, internalErrorBody)
		}
		if verr := validatePayload(w.endpoint.responseRS, w.endpoint.name, KindResponse, generic); verr != nil {
			w.logger.Error("response failed schema validation",
				slog.String("endpoint", w.endpoint.name),
				slog.Any("error", verr))
			return errorResult(http.StatusInternalServerError, internalErrorBody)
		}
	}

	return Result{StatusCode: status, Headers: out.Headers, Body: string(encoded)}
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return make(map[string]string)
	}
	return m
}
