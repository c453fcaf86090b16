package pact

// Fixed bodies for the wrapper's opaque failure responses. The response-
// validation 500 deliberately discards the handler's output so malformed
// internals never reach the caller.
const (
	internalErrorBody = "Internal server error"
	unknownErrorBody  = "Unknown error"
)

// Result is the transport-level response envelope handed back to the
// request-routing collaborator.
type Result struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

func errorResult(status int, body string) Result {
	return Result{StatusCode: status, Body: body}
}
