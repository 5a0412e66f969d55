package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenVerifier(t *testing.T) {
	v := NewTokenVerifier("secret-token")

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid token", "Bearer secret-token", true},
		{"wrong token", "Bearer wrong", false},
		{"missing header", "", false},
		{"wrong scheme", "Basic secret-token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, v.Verify(r))
		})
	}
}

func TestTokenVerifierDisabled(t *testing.T) {
	v := NewTokenVerifier("")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, v.Verify(r))
}

func TestMiddleware(t *testing.T) {
	handler := Middleware(NewTokenVerifier("secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMiddlewareExemptPaths(t *testing.T) {
	handler := Middleware(NewTokenVerifier("secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, path := range []string{"/health", "/metrics"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code, path)
	}
}
