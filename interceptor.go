package pact

import (
	"context"
)

// SendFunc represents the next stage in a call interceptor chain: it issues
// the (already signed) request and returns the response.
type SendFunc func(ctx context.Context) (*Response, error)

// CallInfo describes the outbound call an interceptor is wrapping.
type CallInfo struct {
	Endpoint string
	Method   string
	URL      string
	CallID   string
}

// CallInterceptor is a hook that wraps client invocation.
//
// Interceptors can inspect the call before delegating to next, inspect the
// response after, short-circuit by returning an error without calling next,
// or add values to the context. The request body is already validated and
// serialized by the time an interceptor runs; interceptors observe, they do
// not rewrite payloads.
type CallInterceptor func(ctx context.Context, info *CallInfo, next SendFunc) (*Response, error)

// chainCallInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainCallInterceptors(interceptors []CallInterceptor) CallInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, info *CallInfo, next SendFunc) (*Response, error) {
		chain := next
		for i := len(interceptors) - 1; i >= 1; i-- {
			current := interceptors[i]
			inner := chain
			chain = func(ctx context.Context) (*Response, error) {
				return current(ctx, info, inner)
			}
		}
		return interceptors[0](ctx, info, chain)
	}
}
