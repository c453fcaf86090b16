package sigv4

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

var testCreds = Credentials{
	AccessKey: "AKIDEXAMPLE",
	SecretKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testSigner(opts ...Option) *Signer {
	base := []Option{WithClock(fixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)))}
	return New(StaticProvider{Creds: testCreds}, append(base, opts...)...)
}

func newRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	var r *bytes.Reader
	if body != nil {
		r = bytes.NewReader(body)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestSignThenVerify(t *testing.T) {
	body := []byte(`{"name":"A","rescues":0}`)
	req := newRequest(t, "POST", "https://api.example.com/hero?limit=5", body)
	req.Header.Set("Content-Type", "application/json")

	if err := testSigner().Sign(context.Background(), req, body); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	auth := req.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 ") {
		t.Fatalf("Authorization = %q", auth)
	}
	if !strings.Contains(auth, "Credential=AKIDEXAMPLE/20260830/us-east-1/execute-api/aws4_request") {
		t.Errorf("credential scope wrong: %q", auth)
	}
	if !strings.Contains(auth, "SignedHeaders=content-type;host;x-amz-content-sha256;x-amz-date") {
		t.Errorf("signed headers wrong: %q", auth)
	}
	if req.Header.Get("X-Amz-Date") != "20260830T120000Z" {
		t.Errorf("X-Amz-Date = %q", req.Header.Get("X-Amz-Date"))
	}

	if err := Verify(req, body, testCreds); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestSign_FreshSignaturePerCall(t *testing.T) {
	s := testSigner()
	body := []byte(`{}`)

	sign := func(url string) *http.Request {
		req := newRequest(t, "POST", url, body)
		req.Header.Set("Content-Type", "application/json")
		if err := s.Sign(context.Background(), req, body); err != nil {
			t.Fatal(err)
		}
		return req
	}

	a := sign("https://api.example.com/hero")
	b := sign("https://api.example.com/heroes")

	if a.Header.Get("Authorization") == b.Header.Get("Authorization") {
		t.Error("different requests must not share a signature")
	}
	if err := Verify(a, body, testCreds); err != nil {
		t.Errorf("first signature: %v", err)
	}
	if err := Verify(b, body, testCreds); err != nil {
		t.Errorf("second signature: %v", err)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	body := []byte(`{"name":"A"}`)
	sign := func(t *testing.T) *http.Request {
		req := newRequest(t, "POST", "https://api.example.com/hero", body)
		req.Header.Set("Content-Type", "application/json")
		if err := testSigner().Sign(context.Background(), req, body); err != nil {
			t.Fatal(err)
		}
		return req
	}

	t.Run("body", func(t *testing.T) {
		req := sign(t)
		if err := Verify(req, []byte(`{"name":"B"}`), testCreds); err == nil {
			t.Error("expected mismatch on altered body")
		}
	})
	t.Run("path", func(t *testing.T) {
		req := sign(t)
		req.URL.Path = "/hero/other"
		if err := Verify(req, body, testCreds); err == nil {
			t.Error("expected mismatch on altered path")
		}
	})
	t.Run("query", func(t *testing.T) {
		req := sign(t)
		req.URL.RawQuery = "admin=true"
		if err := Verify(req, body, testCreds); err == nil {
			t.Error("expected mismatch on altered query")
		}
	})
	t.Run("date", func(t *testing.T) {
		req := sign(t)
		req.Header.Set("X-Amz-Date", "20260830T130000Z")
		if err := Verify(req, body, testCreds); err == nil {
			t.Error("expected mismatch on altered date")
		}
	})
	t.Run("wrong secret", func(t *testing.T) {
		req := sign(t)
		other := testCreds
		other.SecretKey = "not-the-secret"
		if err := Verify(req, body, other); err == nil {
			t.Error("expected mismatch on wrong secret")
		}
	})
	t.Run("wrong access key", func(t *testing.T) {
		req := sign(t)
		other := testCreds
		other.AccessKey = "AKIDOTHER"
		if err := Verify(req, body, other); err == nil {
			t.Error("expected access key mismatch")
		}
	})
}

func TestSign_SessionToken(t *testing.T) {
	creds := testCreds
	creds.SessionToken = "FQoGZXIvYXdzEXAMPLE"
	s := New(StaticProvider{Creds: creds},
		WithClock(fixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))))

	req := newRequest(t, "GET", "https://api.example.com/heroes", nil)
	if err := s.Sign(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if req.Header.Get("X-Amz-Security-Token") != creds.SessionToken {
		t.Errorf("X-Amz-Security-Token = %q", req.Header.Get("X-Amz-Security-Token"))
	}
	if !strings.Contains(req.Header.Get("Authorization"), "x-amz-security-token") {
		t.Error("token header must be signed")
	}
	if err := Verify(req, nil, creds); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestSign_RegionAndServiceScope(t *testing.T) {
	s := testSigner(WithRegion("eu-west-1"), WithService("lambda"))
	req := newRequest(t, "GET", "https://api.example.com/heroes", nil)
	if err := s.Sign(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(req.Header.Get("Authorization"), "/eu-west-1/lambda/aws4_request") {
		t.Errorf("scope not applied: %q", req.Header.Get("Authorization"))
	}
}

func TestCheckDate(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	req := newRequest(t, "GET", "https://api.example.com/heroes", nil)

	req.Header.Set("X-Amz-Date", "20260830T115900Z")
	if err := CheckDate(req, now, 5*time.Minute); err != nil {
		t.Errorf("in-window date rejected: %v", err)
	}

	req.Header.Set("X-Amz-Date", "20260830T110000Z")
	if err := CheckDate(req, now, 5*time.Minute); err == nil {
		t.Error("stale date accepted")
	}

	req.Header.Set("X-Amz-Date", "not-a-date")
	if err := CheckDate(req, now, 5*time.Minute); err == nil {
		t.Error("malformed date accepted")
	}
}

func TestVerify_RejectsForeignAuth(t *testing.T) {
	req := newRequest(t, "GET", "https://api.example.com/heroes", nil)
	req.Header.Set("Authorization", "Bearer token")
	if err := Verify(req, nil, testCreds); err == nil {
		t.Error("expected rejection of non-sigv4 authorization")
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "token")

	creds, err := EnvProvider{}.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKey != "AKIDEXAMPLE" || creds.SecretKey != "secret" || creds.SessionToken != "token" {
		t.Errorf("creds = %+v", creds)
	}

	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := (EnvProvider{}).Retrieve(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("incomplete env should yield ErrNoCredentials, got %v", err)
	}
}

func TestFederatedProvider(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		p := FederatedProvider{Exchange: func(ctx context.Context, profile string) (Credentials, error) {
			t.Error("exchange must not run without a profile")
			return Credentials{}, nil
		}}
		if _, err := p.Retrieve(context.Background()); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("exchange", func(t *testing.T) {
		p := FederatedProvider{
			Profile: "dev",
			Exchange: func(ctx context.Context, profile string) (Credentials, error) {
				if profile != "dev" {
					t.Errorf("profile = %q", profile)
				}
				return testCreds, nil
			},
		}
		creds, err := p.Retrieve(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if creds != testCreds {
			t.Errorf("creds = %+v", creds)
		}
	})

	t.Run("incomplete result", func(t *testing.T) {
		p := FederatedProvider{
			Profile: "dev",
			Exchange: func(ctx context.Context, profile string) (Credentials, error) {
				return Credentials{AccessKey: "AKID"}, nil
			},
		}
		if _, err := p.Retrieve(context.Background()); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("got %v", err)
		}
	})
}

func TestChain(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	chain := Chain{Providers: []Provider{
		EnvProvider{},
		StaticProvider{Creds: testCreds},
	}}
	creds, err := chain.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds != testCreds {
		t.Errorf("creds = %+v", creds)
	}

	empty := Chain{Providers: []Provider{EnvProvider{}}}
	if _, err := empty.Retrieve(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("exhausted chain should yield ErrNoCredentials, got %v", err)
	}
}
