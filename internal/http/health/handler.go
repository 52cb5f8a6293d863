// Package health serves the liveness and readiness endpoints.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v5"
	"golang.org/x/sync/errgroup"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
)

// checkTimeout bounds each dependency check in the readiness endpoint.
const checkTimeout = 2 * time.Second

// Check reports whether a dependency is reachable.
type Check = func(ctx context.Context) error

// Response is the payload for the health endpoints.
type Response struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Register wires GET /health (liveness) and GET /health/ready (readiness).
func Register(e *echo.Echo, version string, checks map[string]Check) {
	e.GET("/health", func(c *echo.Context) error {
		return c.JSON(http.StatusOK, Response{Status: "healthy", Version: version})
	})
	e.GET("/health/ready", readiness(version, checks))
}

// readiness runs every check concurrently and answers 503 if any fails.
func readiness(version string, checks map[string]Check) echo.HandlerFunc {
	return func(c *echo.Context) error {
		ctx := c.Request().Context()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		// A zero Group does not cancel siblings, so every check reports.
		results := make([]error, len(names))
		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
				defer cancel()
				results[i] = checks[name](checkCtx)
				if results[i] != nil {
					return fmt.Errorf("%s: %w", name, results[i])
				}
				return nil
			})
		}

		resp := Response{Status: "ready", Version: version, Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		if err := g.Wait(); err != nil {
			applog.LogWarn(ctx, "readiness check failed", slog.String("error", err.Error()))
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		for i, name := range names {
			resp.Checks[name] = "ok"
			if results[i] != nil {
				resp.Checks[name] = "unavailable"
			}
		}

		return c.JSON(status, resp)
	}
}
