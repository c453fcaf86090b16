package sigv4

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNoCredentials reports that no provider in the chain could produce a
// usable credential set.
var ErrNoCredentials = errors.New("sigv4: credentials unavailable")

// Credentials is the secret material a signature is scoped to.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// HasKeys reports whether the static triple is complete enough to sign with.
func (c Credentials) HasKeys() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// Provider resolves credentials. Resolution may involve a network or
// local-file round trip and is performed per signing operation; nothing in
// this package caches across calls.
type Provider interface {
	Retrieve(ctx context.Context) (Credentials, error)
}

// StaticProvider returns a fixed credential set.
type StaticProvider struct {
	Creds Credentials
}

func (p StaticProvider) Retrieve(context.Context) (Credentials, error) {
	if !p.Creds.HasKeys() {
		return Credentials{}, ErrNoCredentials
	}
	return p.Creds, nil
}

// EnvProvider reads the static triple from the conventional environment
// variables.
type EnvProvider struct{}

func (EnvProvider) Retrieve(context.Context) (Credentials, error) {
	c := Credentials{
		AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken: os.Getenv("AWS_SESSION_TOKEN"),
	}
	if !c.HasKeys() {
		return Credentials{}, fmt.Errorf("%w: AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY unset", ErrNoCredentials)
	}
	return c, nil
}

// ExchangeFunc obtains credentials from a federated identity provider for a
// named profile. The exchange itself (SSO token refresh, role assumption) is
// external to this package.
type ExchangeFunc func(ctx context.Context, profile string) (Credentials, error)

// FederatedProvider resolves credentials through a federated/SSO exchange
// keyed by a configured profile name.
type FederatedProvider struct {
	Profile  string
	Exchange ExchangeFunc
}

func (p FederatedProvider) Retrieve(ctx context.Context) (Credentials, error) {
	if p.Profile == "" {
		return Credentials{}, fmt.Errorf("%w: no profile configured", ErrNoCredentials)
	}
	if p.Exchange == nil {
		return Credentials{}, fmt.Errorf("%w: no exchange configured for profile %q", ErrNoCredentials, p.Profile)
	}
	creds, err := p.Exchange(ctx, p.Profile)
	if err != nil {
		return Credentials{}, fmt.Errorf("sigv4: federated exchange for profile %q: %w", p.Profile, err)
	}
	if !creds.HasKeys() {
		return Credentials{}, fmt.Errorf("%w: federated exchange returned incomplete credentials", ErrNoCredentials)
	}
	return creds, nil
}

// Chain tries each provider in order and returns the first success.
type Chain struct {
	Providers []Provider
}

func (c Chain) Retrieve(ctx context.Context) (Credentials, error) {
	var lastErr error
	for _, p := range c.Providers {
		creds, err := p.Retrieve(ctx)
		if err == nil {
			return creds, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNoCredentials
	}
	return Credentials{}, lastErr
}

// DefaultChain resolves from the environment triple first, then falls back
// to a federated exchange keyed by the AWS_PROFILE environment variable.
func DefaultChain(exchange ExchangeFunc) Provider {
	return Chain{Providers: []Provider{
		EnvProvider{},
		FederatedProvider{Profile: os.Getenv("AWS_PROFILE"), Exchange: exchange},
	}}
}
