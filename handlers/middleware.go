package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenVerifier validates a bearer token and yields the user id it was
// issued for.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// RequireAuth wraps next with bearer-token verification. Requests without
// a valid token get a bare 401; no detail about why the token failed is
// leaked to the caller.
func RequireAuth(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogging tags each request with a short id and logs method, path,
// status and duration.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()[:8]
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("[http] %s %s %s -> %d (%s)", requestID, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
