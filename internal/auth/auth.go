// Package auth gates the mutating API surface behind a shared bearer
// token. An empty configured token disables the check, which is the
// development default.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Verifier checks request credentials.
type Verifier interface {
	Verify(r *http.Request) bool
}

// TokenVerifier accepts requests bearing a fixed shared token.
type TokenVerifier struct {
	token string
}

// NewTokenVerifier creates a verifier for the shared token. An empty
// token means every request passes.
func NewTokenVerifier(token string) *TokenVerifier {
	return &TokenVerifier{token: token}
}

// Verify checks the Authorization header for the shared bearer token
// using a constant-time comparison.
func (v *TokenVerifier) Verify(r *http.Request) bool {
	if v.token == "" {
		return true
	}

	header := r.Header.Get("Authorization")
	presented, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(presented), []byte(v.token)) == 1
}

// Middleware rejects unverified requests with 401. Health checks and
// metrics scrapes stay open so probes work without credentials.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" && r.URL.Path != "/metrics" && !v.Verify(r) {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
