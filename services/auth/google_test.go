package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func tokenInfoResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestGoogleVerify(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("id_token") != "good-credential" {
				t.Fatalf("unexpected id_token %q", req.URL.Query().Get("id_token"))
			}
			return tokenInfoResponse(http.StatusOK,
				`{"aud":"my-client-id","sub":"sub-123","email":"user@example.com"}`), nil
		}),
	}

	v := NewGoogleVerifier("my-client-id", httpc)
	email, subject, err := v.Verify(context.Background(), "good-credential")
	if err != nil {
		t.Fatalf("verify returned error: %v", err)
	}
	if email != "user@example.com" || subject != "sub-123" {
		t.Fatalf("unexpected identity: %q / %q", email, subject)
	}
}

func TestGoogleVerifyRejectsWrongAudience(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(_ *http.Request) (*http.Response, error) {
			return tokenInfoResponse(http.StatusOK,
				`{"aud":"someone-elses-client","sub":"sub-123","email":"user@example.com"}`), nil
		}),
	}

	v := NewGoogleVerifier("my-client-id", httpc)
	if _, _, err := v.Verify(context.Background(), "credential"); !errors.Is(err, ErrGoogleAuthFailed) {
		t.Fatalf("expected ErrGoogleAuthFailed, got %v", err)
	}
}

func TestGoogleVerifyRejectsBadToken(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(_ *http.Request) (*http.Response, error) {
			return tokenInfoResponse(http.StatusBadRequest, `{"error":"invalid_token"}`), nil
		}),
	}

	v := NewGoogleVerifier("my-client-id", httpc)
	if _, _, err := v.Verify(context.Background(), "bad"); !errors.Is(err, ErrGoogleAuthFailed) {
		t.Fatalf("expected ErrGoogleAuthFailed, got %v", err)
	}
}

func TestGoogleVerifyRequiresConfiguration(t *testing.T) {
	v := NewGoogleVerifier("", nil)
	if _, _, err := v.Verify(context.Background(), "credential"); !errors.Is(err, ErrGoogleAuthFailed) {
		t.Fatalf("expected ErrGoogleAuthFailed without a client id, got %v", err)
	}

	v = NewGoogleVerifier("my-client-id", nil)
	if _, _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrGoogleAuthFailed) {
		t.Fatalf("expected ErrGoogleAuthFailed for empty credential, got %v", err)
	}
}
