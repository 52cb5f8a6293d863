package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
)

// useCapture routes the process logger into buf for the duration of the test.
func useCapture(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	prev := Logger()
	t.Cleanup(func() { current.Store(prev) })
	current.Store(captureLogger(buf, slog.LevelDebug))
}

func TestRequestLogger_RequestIDCorrelation(t *testing.T) {
	var buf bytes.Buffer
	useCapture(t, &buf)

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			c.Set("request_id", "test-req-id")
			return next(c)
		}
	})
	e.Use(RequestLogger())

	var traceID *string
	e.GET("/v1/profile/:handle", func(c *echo.Context) error {
		ctx := c.Request().Context()
		traceID = TraceIDFromContext(ctx)
		LogInfo(ctx, "lookup")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/profile/demo1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if traceID == nil || *traceID != "test-req-id" {
		t.Fatalf("expected request id as correlation, got %v", traceID)
	}
	if !strings.Contains(buf.String(), `"requestId":"test-req-id"`) {
		t.Fatalf("expected requestId on request log lines, got %q", buf.String())
	}
}

func TestRequestLogger_TraceparentCorrelation(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "cards-test")
	if resolveProjectID() == "" {
		t.Skip("project id resolved before this test set it")
	}
	project := resolveProjectID()

	e := echo.New()
	e.Use(RequestLogger())

	var traceID *string
	e.GET("/v1/profile/:handle", func(c *echo.Context) error {
		traceID = TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/profile/demo1", nil)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	want := "projects/" + project + "/traces/0af7651916cd43dd8448eb211c80319c"
	if traceID == nil || *traceID != want {
		t.Fatalf("expected %q, got %v", want, traceID)
	}
}

func TestAccessLogger_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, `"level":"INFO"`},
		{http.StatusNotFound, `"level":"WARN"`},
		{http.StatusServiceUnavailable, `"level":"ERROR"`},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			useCapture(t, &buf)

			e := echo.New()
			e.Use(RequestLogger(), AccessLogger())
			e.GET("/v1/profile/:handle", func(c *echo.Context) error {
				return c.NoContent(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/v1/profile/demo1", nil)
			req.Header.Set("User-Agent", "cards-test")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			out := buf.String()
			for _, want := range []string{
				tt.level,
				`"route":"/v1/profile/:handle"`,
				`"path":"/v1/profile/demo1"`,
				`"userAgent":"cards-test"`,
			} {
				if !strings.Contains(out, want) {
					t.Fatalf("expected %s in %q", want, out)
				}
			}
		})
	}
}

func TestAccessLogger_SkipPaths(t *testing.T) {
	var buf bytes.Buffer
	useCapture(t, &buf)

	e := echo.New()
	e.Use(RequestLogger(), AccessLogger("/health"))
	e.GET("/health", func(c *echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if buf.Len() != 0 {
		t.Fatalf("expected no access log for skipped path, got %q", buf.String())
	}
}

func TestAccessLogger_ErrorPropagation(t *testing.T) {
	var buf bytes.Buffer
	useCapture(t, &buf)

	e := echo.New()
	e.Use(RequestLogger(), AccessLogger())
	e.GET("/error", func(c *echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	})

	req := httptest.NewRequest(http.MethodGet, "/error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
