package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"LiveTable/internal/config"
	"LiveTable/internal/handler"
	"LiveTable/internal/query"
)

func testConfig() *config.Config {
	return &config.Config{CORS: config.CORSConfig{AllowOrigin: "*"}}
}

func TestInitRoutes_UnknownResourceAndMethod(t *testing.T) {
	mux, err := InitRoutes(testConfig(), &handler.Tables{Tables: map[string]*query.Table{}})
	if err != nil {
		t.Fatalf("InitRoutes failed: %v", err)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown resource: got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header missing")
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tables/nope/count", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST: got %d", w.Code)
	}
}

func TestInitRoutes_KeepsRequestID(t *testing.T) {
	mux, err := InitRoutes(testConfig(), &handler.Tables{Tables: map[string]*query.Table{}})
	if err != nil {
		t.Fatalf("InitRoutes failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/tables/nope", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Fatalf("unexpected request id: %q", got)
	}
}

func TestInitRoutes_AuthEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{
		Enabled: true,
		JWT: config.JWTConfig{
			ValidationType: "HS256",
			Issuer:         "auth-service",
			Audience:       "livetable",
			HMACSecret:     "secret",
		},
	}
	mux, err := InitRoutes(cfg, &handler.Tables{Tables: map[string]*query.Table{}})
	if err != nil {
		t.Fatalf("InitRoutes failed: %v", err)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/nope", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	cfg.Auth.JWT.HMACSecret = ""
	if _, err := InitRoutes(cfg, &handler.Tables{}); err == nil {
		t.Fatalf("expected validator config error")
	}
}
