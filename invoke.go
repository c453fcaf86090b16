package pact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Signer produces the authentication headers for an outbound request. The
// body is passed separately because the signature binds to the exact payload
// bytes. Each call computes a fresh signature: signed requests are single-use.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, body []byte) error
}

// Response is the raw outcome of a transport invocation. It is returned
// as-is even when the body does not match the endpoint's response schema.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the response body as JSON.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("pact: decode response: %w", err)
	}
	return nil
}

// invoker issues signed requests and classifies outcomes. Statuses outside
// 2xx that are not allow-listed become a TransportError carrying the status
// and raw body text.
type invoker struct {
	hc      *http.Client
	signer  Signer
	allowed map[int]bool
	logger  *slog.Logger
}

func (iv *invoker) send(ctx context.Context, method, rawURL string, headers http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("pact: build request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if iv.signer != nil {
		if err := iv.signer.Sign(ctx, req, body); err != nil {
			return nil, fmt.Errorf("pact: sign request: %w", err)
		}
	}

	iv.logger.Debug("sending request",
		slog.String("method", method),
		slog.String("url", rawURL),
		slog.Int("bodyBytes", len(body)))

	resp, err := iv.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pact: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pact: read response: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       respBody,
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return out, nil
	}
	if iv.allowed[resp.StatusCode] {
		return out, nil
	}
	return nil, &TransportError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(respBody),
	}
}
