// Package pact defines, serves, signs, and validates typed HTTP endpoints
// from a single declarative contract.
//
// An [Endpoint] binds a {param} path template, an HTTP method, and optional
// request/response JSON schemas into one named unit; a [Registry] is the
// catalog both sides share. [NewClient] generates an invocable function per
// endpoint that substitutes path parameters, validates the body, signs the
// request, and sends it; [Wrap] turns a business handler into the
// transport-level function the routing layer dispatches to.
//
// Validation is asymmetric on purpose: request bodies that fail their schema
// abort before reaching the wire, while response bodies that fail theirs are
// logged and passed through. Signing is pluggable via [Signer]; see the
// sigv4 subpackage for the credential-scoped implementation.
package pact
