package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Tracing opens a server span per request and propagates incoming trace
// context.
func Tracing(serviceName string) echo.MiddlewareFunc {
	return otelecho.Middleware(serviceName)
}
