package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authProtected(keys []string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return BearerAuthMiddleware(keys)(next)
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		path   string
		header string
		status int
	}{
		{"valid key", []string{"secret"}, "/v1/search", "Bearer secret", http.StatusOK},
		{"second key valid", []string{"a", "b"}, "/v1/search", "Bearer b", http.StatusOK},
		{"missing header", []string{"secret"}, "/v1/search", "", http.StatusUnauthorized},
		{"wrong scheme", []string{"secret"}, "/v1/search", "Basic secret", http.StatusUnauthorized},
		{"invalid key", []string{"secret"}, "/v1/search", "Bearer nope", http.StatusUnauthorized},
		{"case sensitive", []string{"secret"}, "/v1/search", "Bearer SECRET", http.StatusUnauthorized},
		{"healthz exempt", []string{"secret"}, "/healthz", "", http.StatusOK},
		{"metrics exempt", []string{"secret"}, "/metrics", "", http.StatusOK},
		{"auth disabled", nil, "/v1/search", "", http.StatusOK},
		{"blank keys disable auth", []string{""}, "/v1/search", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := authProtected(tt.keys)
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestBearerAuth_ErrorBody(t *testing.T) {
	h := authProtected([]string{"secret"})
	req := httptest.NewRequest("GET", "/v1/search", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
