package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"git-cors-proxy/internal/service"
)

// ErrorHandler returns an echo.HTTPErrorHandler that converts anything
// escaping a handler, including panics recovered by the Recover middleware,
// into the JSON proxy error envelope.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "internal error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprint(he.Message)
		} else if err != nil {
			message = err.Error()
		}

		logger.Error("unhandled error",
			"err", err,
			"status", code,
			"path", c.Request().URL.Path,
		)

		service.ApplyCORS(c.Response().Header())
		_ = c.JSON(code, map[string]string{
			"error":   "Proxy error",
			"message": message,
		})
	}
}
