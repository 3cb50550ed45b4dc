package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinetrack/handlers"
	"cinetrack/services/auth"
)

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	token, err := tokens.Issue(7)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	var seenUserID int64
	wrapped := handlers.RequireAuth(tokens, func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = handlers.UserID(r)
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			wrapped(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
		})
	}

	if seenUserID != 7 {
		t.Fatalf("expected user id 7 injected into context, got %d", seenUserID)
	}
}

func TestRequireAuthRejectsForeignToken(t *testing.T) {
	token, err := auth.NewTokenService("other-secret", time.Hour).Issue(7)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	wrapped := handlers.RequireAuth(auth.NewTokenService("test-secret", time.Hour),
		func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	wrapped(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
