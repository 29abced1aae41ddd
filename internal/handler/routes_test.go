package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"git-cors-proxy/internal/client"
	"git-cors-proxy/internal/config"
	"git-cors-proxy/internal/metrics"
	"git-cors-proxy/internal/service"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("upstream"))
	}))
	defer upstream.Close()
	host := strings.TrimPrefix(upstream.URL, "http://")

	cfg := testConfig()
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
	logger := discardLogger()
	m := metrics.New()
	uc := client.NewUpstreamClient(cfg, logger, m)
	svc := service.NewProxyServiceForTest(uc, cfg, logger, "http")

	proxy := NewProxyHandler(svc, logger)
	health := NewHealthHandler(cfg, "test")

	e := echo.New()
	RegisterRoutes(e, cfg, m, proxy, health)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET /healthz", http.MethodGet, "/healthz", http.StatusOK},
		{"GET /proxy/status", http.MethodGet, "/proxy/status", http.StatusOK},
		{"GET /metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"GET proxied path", http.MethodGet, "/" + host + "/repo.git", http.StatusOK},
		{"POST proxied path", http.MethodPost, "/" + host + "/repo.git", http.StatusOK},
		{"OPTIONS preflight on proxied path", http.MethodOptions, "/" + host + "/repo.git", http.StatusOK},
		{"GET / is a proxy request with empty path", http.MethodGet, "/", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRegisterRoutes_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics = config.MetricsConfig{Enabled: false, Path: "/metrics"}
	logger := discardLogger()
	uc := client.NewUpstreamClient(cfg, logger, nil)
	svc := service.NewProxyServiceForTest(uc, cfg, logger, "http")

	e := echo.New()
	RegisterRoutes(e, cfg, nil, NewProxyHandler(svc, logger), NewHealthHandler(cfg, "test"))

	// With metrics disabled the path must not be registered; /metrics falls
	// through to the catch-all proxy route like any other target domain.
	for _, r := range e.Routes() {
		if r.Path == "/metrics" {
			t.Fatal("metrics route registered despite metrics.enabled = false")
		}
	}
}
