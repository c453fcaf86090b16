// Package sigv4 signs HTTP requests with a credential- and time-scoped
// HMAC-SHA256 signature in the SigV4 style: canonical request, date/region/
// service-scoped key derivation, and a signature header binding the exact
// method, path, query, headers, and payload bytes.
package sigv4

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	algorithm      = "AWS4-HMAC-SHA256"
	DefaultService = "execute-api"
	DefaultRegion  = "us-east-1"

	amzDateFormat   = "20060102T150405Z"
	dateStampFormat = "20060102"
)

// Signer computes request signatures scoped to a fixed service and region.
// A signature binds to byte-exact request content and minute-granular time,
// so every request gets a fresh one; Signer never reuses or caches
// signatures, and credential resolution runs per call.
type Signer struct {
	service string
	region  string
	creds   Provider
	now     func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithRegion overrides the default us-east-1 signing region.
func WithRegion(region string) Option {
	return func(s *Signer) {
		if region != "" {
			s.region = region
		}
	}
}

// WithService overrides the default execute-api service scope.
func WithService(service string) Option {
	return func(s *Signer) {
		if service != "" {
			s.service = service
		}
	}
}

// WithClock injects the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// New builds a signer over a credential provider.
func New(creds Provider, opts ...Option) *Signer {
	s := &Signer{
		service: DefaultService,
		region:  DefaultRegion,
		creds:   creds,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign resolves credentials and adds the signature headers to req. The body
// is passed separately because req.Body may already be consumed-on-read; the
// signature must cover the exact bytes going to the wire.
func (s *Signer) Sign(ctx context.Context, req *http.Request, body []byte) error {
	creds, err := s.creds.Retrieve(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)

	req.Header.Set("X-Amz-Date", amzDate)
	if creds.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}
	payloadHash := hashHex(body)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	signedNames := signedHeaderNames(req)
	canonical := canonicalRequest(req, signedNames, payloadHash)

	scope := dateStamp + "/" + s.region + "/" + s.service + "/aws4_request"
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonical)),
	}, "\n")

	key := signingKey(creds.SecretKey, dateStamp, s.region, s.service)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, creds.AccessKey, scope, strings.Join(signedNames, ";"), signature))
	return nil
}

// Verify recomputes the signature of a signed request and compares in
// constant time. The scope (date, region, service) and signed header set are
// taken from the Authorization header itself; the caller supplies the secret
// the signature should be scoped to. Replay-window enforcement is separate:
// see CheckDate.
func Verify(req *http.Request, body []byte, creds Credentials) error {
	auth := req.Header.Get("Authorization")
	if !strings.HasPrefix(auth, algorithm+" ") {
		return fmt.Errorf("sigv4: missing or foreign authorization header")
	}

	fields := make(map[string]string)
	for _, part := range strings.Split(auth[len(algorithm)+1:], ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return fmt.Errorf("sigv4: malformed authorization field %q", part)
		}
		fields[k] = v
	}

	credParts := strings.Split(fields["Credential"], "/")
	if len(credParts) != 5 || credParts[4] != "aws4_request" {
		return fmt.Errorf("sigv4: malformed credential scope %q", fields["Credential"])
	}
	accessKey, dateStamp, region, service := credParts[0], credParts[1], credParts[2], credParts[3]
	if accessKey != creds.AccessKey {
		return fmt.Errorf("sigv4: access key mismatch")
	}

	amzDate := req.Header.Get("X-Amz-Date")
	if amzDate == "" {
		return fmt.Errorf("sigv4: missing X-Amz-Date")
	}

	signedNames := strings.Split(fields["SignedHeaders"], ";")
	canonical := canonicalRequest(req, signedNames, hashHex(body))

	scope := dateStamp + "/" + region + "/" + service + "/aws4_request"
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonical)),
	}, "\n")

	key := signingKey(creds.SecretKey, dateStamp, region, service)
	want := hmacSHA256(key, stringToSign)

	got, err := hex.DecodeString(fields["Signature"])
	if err != nil {
		return fmt.Errorf("sigv4: malformed signature: %w", err)
	}
	if !hmac.Equal(want, got) {
		return fmt.Errorf("sigv4: signature mismatch")
	}
	return nil
}

// CheckDate enforces the replay window: the request's X-Amz-Date must fall
// within skew of now.
func CheckDate(req *http.Request, now time.Time, skew time.Duration) error {
	amzDate := req.Header.Get("X-Amz-Date")
	ts, err := time.Parse(amzDateFormat, amzDate)
	if err != nil {
		return fmt.Errorf("sigv4: malformed X-Amz-Date %q: %w", amzDate, err)
	}
	d := now.UTC().Sub(ts)
	if d < 0 {
		d = -d
	}
	if d > skew {
		return fmt.Errorf("sigv4: request dated %s outside replay window %s", amzDate, skew)
	}
	return nil
}

// signedHeaderNames selects the headers bound into the signature: host,
// content-type when present, and every x-amz-* header. Sorted.
func signedHeaderNames(req *http.Request) []string {
	names := []string{"host"}
	if req.Header.Get("Content-Type") != "" {
		names = append(names, "content-type")
	}
	for name := range req.Header {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-amz-") && lower != "x-amz-signature" {
			names = append(names, lower)
		}
	}
	sort.Strings(names)
	return names
}

// canonicalRequest flattens method, path, query, signed headers, and payload
// hash into the exact byte string the signature covers.
func canonicalRequest(req *http.Request, signedNames []string, payloadHash string) string {
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}

	path := req.URL.EscapedPath()
	if path == "" {
		path = "/"
	}

	// url.Values.Encode sorts by key, which is the canonical ordering.
	query := req.URL.Query().Encode()

	var headers strings.Builder
	for _, name := range signedNames {
		headers.WriteString(name)
		headers.WriteByte(':')
		if name == "host" {
			headers.WriteString(host)
		} else {
			headers.WriteString(strings.TrimSpace(req.Header.Get(name)))
		}
		headers.WriteByte('\n')
	}

	return strings.Join([]string{
		req.Method,
		path,
		query,
		headers.String(),
		strings.Join(signedNames, ";"),
		payloadHash,
	}, "\n")
}

// signingKey derives the date/region/service-scoped key: a four-step HMAC
// chain off the secret.
func signingKey(secret, dateStamp, region, service string) []byte {
	k := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	k = hmacSHA256(k, region)
	k = hmacSHA256(k, service)
	return hmacSHA256(k, "aws4_request")
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
