// Package gateway adapts wrapped contract handlers onto an HTTP router. It
// is the request-routing collaborator the contract core assumes: it matches
// path and method, shapes the inbound request into an event, and writes the
// handler's result envelope back out.
package gateway

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/martzmakes/pact"
	"github.com/martzmakes/pact/middleware"
)

// Gateway mounts event handlers on a chi router.
type Gateway struct {
	router chi.Router
	logger *slog.Logger
}

// Option configures the gateway at construction.
type Option func(*config)

type config struct {
	logger *slog.Logger
	cors   *cors.Options
}

// WithLogger sets the gateway's access and registration logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithCORS enables CORS handling with the given options.
func WithCORS(opts cors.Options) Option {
	return func(c *config) { c.cors = &opts }
}

// New builds a gateway with request-id and access-log middleware installed.
func New(opts ...Option) *Gateway {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(cfg.logger))
	if cfg.cors != nil {
		r.Use(cors.Handler(*cfg.cors))
	}
	return &Gateway{router: r, logger: cfg.logger}
}

// Handle registers an event handler under the endpoint's method and path
// template. The {param} template syntax maps directly onto the router's
// pattern syntax, so matched URL params become the event's path parameters.
func (g *Gateway) Handle(e *pact.Endpoint, h pact.EventHandler) {
	pattern := e.Path()
	fn := g.dispatch(h)

	g.logger.Debug("route registered",
		slog.String("endpoint", e.Name()),
		slog.String("method", e.Method()),
		slog.String("pattern", pattern))

	switch e.Method() {
	case http.MethodGet:
		g.router.Get(pattern, fn)
	case http.MethodPost:
		g.router.Post(pattern, fn)
	case http.MethodPut:
		g.router.Put(pattern, fn)
	case http.MethodDelete:
		g.router.Delete(pattern, fn)
	}
}

// Mount wraps and registers a business handler for every endpoint in the
// registry. Every endpoint must have a handler; a missing one is a wiring
// error surfaced at startup, not at request time.
func (g *Gateway) Mount(reg *pact.Registry, handlers map[string]pact.Handler) error {
	for _, name := range reg.Names() {
		h, ok := handlers[name]
		if !ok {
			return fmt.Errorf("gateway: no handler for endpoint %q", name)
		}
		e, _ := reg.Get(name)
		g.Handle(e, pact.Wrap(e, h, pact.WithWrapLogger(g.logger)))
	}
	return nil
}

// Handler returns the underlying http.Handler for use with
// http.ListenAndServe.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) dispatch(h pact.EventHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		evt, err := eventFromRequest(r)
		if err != nil {
			g.logger.Error("failed to read request", slog.Any("error", err))
			http.Error(w, "Unknown error", http.StatusInternalServerError)
			return
		}

		res := h(r.Context(), evt)

		header := w.Header()
		header.Set("Content-Type", "application/json")
		for k, v := range res.Headers {
			header.Set(k, v)
		}
		w.WriteHeader(res.StatusCode)
		io.WriteString(w, res.Body)
	}
}

// eventFromRequest flattens an HTTP request into the event shape the wrapper
// consumes. Multi-valued headers and query parameters collapse to their
// first value; the contract surface is single-valued maps.
func eventFromRequest(r *http.Request) (pact.Event, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return pact.Event{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	query := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}

	params := make(map[string]string)
	if rc := chi.RouteContext(r.Context()); rc != nil {
		for i, key := range rc.URLParams.Keys {
			if key == "*" {
				continue
			}
			params[key] = rc.URLParams.Values[i]
		}
	}

	return pact.Event{
		Body:                  string(body),
		Headers:               headers,
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		PathParameters:        params,
		QueryStringParameters: query,
	}, nil
}
