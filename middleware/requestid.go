package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey struct{ name string }

var requestIDKey = &contextKey{"request_id"}

// RequestIDHeader is the header the request ID is read from and echoed on.
const RequestIDHeader = "X-Request-Id"

// RequestID assigns each inbound request an ID, honoring one supplied by the
// caller, and echoes it on the response for cross-boundary traceability.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from the context, empty if unset.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromRequest returns the request's assigned ID.
func FromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}
