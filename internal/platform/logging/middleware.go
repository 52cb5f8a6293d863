package logging

import (
	"log/slog"
	"slices"
	"time"

	"github.com/labstack/echo/v5"
)

// RequestLogger returns Echo middleware that stores a request-scoped logger in
// the request context. The logger carries Cloud Trace correlation fields and
// the request id set by the request id middleware.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			req := c.Request()
			projectID := resolveProjectID()
			reqID, _ := c.Get("request_id").(string)

			attrs := traceAttrs(req.Header, projectID)
			if reqID != "" {
				attrs = append(attrs, slog.String("requestId", reqID))
			}

			correlation := reqID
			if sc, ok := parseSpanContext(req.Header); ok && projectID != "" {
				correlation = sc.resource(projectID)
			}

			ctx := contextWithTraceID(req.Context(), correlation)
			ctx = contextWithLogger(ctx, withAttrs(Logger(), attrs))
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// AccessLogger returns Echo middleware that logs one summary per request.
// Server errors log at ERROR and client errors at WARNING. Requests whose path
// is in skipPaths, such as health checks, are not logged.
func AccessLogger(skipPaths ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if slices.Contains(skipPaths, c.Request().URL.Path) {
				return next(c)
			}
			start := time.Now()

			err := next(c)

			status, size := 0, int64(0)
			if resp, unwrapErr := echo.UnwrapResponse(c.Response()); unwrapErr == nil {
				status, size = resp.Status, resp.Size
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			ctx := c.Request().Context()
			LoggerFromContext(ctx).LogAttrs(ctx, level, "request completed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("route", c.Path()),
				slog.Int("status", status),
				slog.Int64("bytes", size),
				slog.String("remoteIp", c.RealIP()),
				slog.String("userAgent", c.Request().UserAgent()),
				slog.Duration("latency", time.Since(start)),
			)

			return err
		}
	}
}
