package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders returns an Echo middleware that adds security headers to
// every response. Request headers are left untouched here: which inbound
// headers reach the upstream is governed entirely by the forwarding
// allowlist.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			c.Response().Header().Set("X-Content-Type-Options", "nosniff")

			return err
		}
	}
}
