// Package middleware provides observability hooks for both sides of the
// contract system: call interceptors for the generated client and HTTP
// middleware for the gateway adapter.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/martzmakes/pact"
)

// CallLogger creates an interceptor that logs client calls using slog.
// It logs the start and end of each call, including duration and error
// status.
func CallLogger(logger *slog.Logger) pact.CallInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, info *pact.CallInfo, next pact.SendFunc) (*pact.Response, error) {
		start := time.Now()

		logger.InfoContext(ctx, "call started",
			slog.String("endpoint", info.Endpoint),
			slog.String("method", info.Method),
			slog.String("url", info.URL),
			slog.String("callId", info.CallID),
		)

		res, err := next(ctx)
		duration := time.Since(start)

		if err != nil {
			logger.ErrorContext(ctx, "call failed",
				slog.String("endpoint", info.Endpoint),
				slog.String("callId", info.CallID),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			logger.InfoContext(ctx, "call completed",
				slog.String("endpoint", info.Endpoint),
				slog.String("callId", info.CallID),
				slog.Int("status", res.StatusCode),
				slog.Duration("duration", duration),
			)
		}

		return res, err
	}
}

// AccessLog logs every inbound request with method, path, status, and
// duration.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info("request handled",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.String("requestId", FromRequest(r)),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
