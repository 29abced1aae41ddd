package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"git-cors-proxy/internal/model"
	"git-cors-proxy/internal/service"
)

// ProxyHandler forwards requests to the target host named in the path and
// streams the response back with CORS decoration.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle translates /{domain}/{remainder} into an upstream call and streams
// the response back. OPTIONS preflights short-circuit with CORS headers only
// and never reach the upstream.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	service.ApplyCORS(c.Response().Header())

	if req.Method == http.MethodOptions {
		return c.NoContent(http.StatusOK)
	}

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     strings.TrimPrefix(req.URL.Path, "/"),
		RawQuery: req.URL.RawQuery,
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Copy filtered response headers
	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the upstream body directly to the client. If io.Copy fails
	// mid-stream (e.g. client disconnect, network error), the status code
	// has already been sent, so the client receives a truncated response.
	// This is an inherent trade-off of streaming proxies; log and move on.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

// mapError converts pipeline failures into the JSON error envelope. Every
// request gets an answer; nothing propagates far enough to kill the process.
func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, service.ErrInvalidProxyURL) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid proxy URL format",
		})
	}

	if errors.Is(err, service.ErrInvalidPath) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid path format",
		})
	}

	var ue *service.UpstreamError
	if errors.As(err, &ue) {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Proxy error",
			"message": ue.Err.Error(),
			"url":     ue.URL,
		})
	}

	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error":   "Proxy error",
		"message": err.Error(),
	})
}
