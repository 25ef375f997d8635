package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{name: "no origin passes", allowed: []string{"http://localhost:8080"}, method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "allowed origin", allowed: []string{"http://localhost:8080"}, method: http.MethodGet, origin: "http://localhost:8080", wantStatus: http.StatusOK, wantAllowed: "http://localhost:8080"},
		{name: "trailing slash in config", allowed: []string{"https://app.example.com/"}, method: http.MethodGet, origin: "https://app.example.com", wantStatus: http.StatusOK, wantAllowed: "https://app.example.com"},
		{name: "disallowed origin", allowed: []string{"http://localhost:8080"}, method: http.MethodGet, origin: "https://evil.example.com", wantStatus: http.StatusForbidden},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodGet, origin: "https://any.example.com", wantStatus: http.StatusOK, wantAllowed: "https://any.example.com"},
		{name: "preflight", allowed: []string{"http://localhost:8080"}, method: http.MethodOptions, origin: "http://localhost:8080", preflight: true, wantStatus: http.StatusNoContent, wantAllowed: "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(setupTestLogger(), tt.allowed)(next)

			req := httptest.NewRequest(tt.method, "/movies", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.preflight {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
			}
		})
	}
}
