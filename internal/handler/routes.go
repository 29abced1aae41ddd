package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git-cors-proxy/internal/config"
	"git-cors-proxy/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The
// catch-all proxy route is registered last; static routes always win, so
// /healthz and friends are never mistaken for a target domain.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}

	e.Any("/*", proxy.Handle)
}
