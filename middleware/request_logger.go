package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger writes one access log entry per request. The request logger
// is also stored in the request context for zerolog's log.Ctx.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqLogger := logger.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			c.SetRequest(req.WithContext(reqLogger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			res := c.Response()
			status := res.Status
			event := reqLogger.Info()
			switch {
			case status >= 500:
				event = reqLogger.Error().Err(err)
			case status >= 400:
				event = reqLogger.Warn()
			}

			if sc := trace.SpanContextFromContext(c.Request().Context()); sc.IsValid() {
				event = event.Str("trace_id", sc.TraceID().String())
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Int64("bytes", res.Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("HTTP request")

			return nil
		}
	}
}
