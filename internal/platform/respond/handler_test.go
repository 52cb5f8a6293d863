package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/labstack/echo/v5"

	"github.com/janisto/linkglyph/internal/platform/validate"
)

func newEcho(h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler()
	e.Use(Recoverer())
	e.GET("/v1/thing", h)
	return e
}

func serve(e *echo.Echo, method, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var p ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode problem: %v (body %q)", err, rec.Body.String())
	}
	return p
}

func TestHTTPErrorHandler(t *testing.T) {
	validationErr := &validate.ValidationError{
		Message: "validation failed",
		Fields: []validate.FieldError{
			{Field: "handle", Message: "handle is required"},
			{Field: "accent", Message: "accent must be a hex color like #22d3ee or #fff", Value: "red"},
		},
	}

	tests := []struct {
		name    string
		err     error
		status  int
		message string
		fields  int
	}{
		{"problem", Error409("conflict, choose another identifier"), http.StatusConflict, "conflict, choose another identifier", 0},
		{"wrapped problem", errors.Join(errors.New("ctx"), Error404("profile not found")), http.StatusNotFound, "profile not found", 0},
		{"validation", validationErr, http.StatusBadRequest, "handle is required", 2},
		{"echo http error", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request entity too large"), http.StatusRequestEntityTooLarge, "request entity too large", 0},
		{"bare error", errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal server error", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho(func(c *echo.Context) error { return tt.err })
			rec := serve(e, http.MethodGet, "/v1/thing", "")

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Fatalf("expected application/problem+json, got %q", ct)
			}
			p := decodeProblem(t, rec)
			if p.OK || p.Message != tt.message {
				t.Fatalf("expected ok=false error=%q, got %+v", tt.message, p)
			}
			if p.Instance != "/v1/thing" {
				t.Fatalf("expected instance /v1/thing, got %q", p.Instance)
			}
			if len(p.Errors) != tt.fields {
				t.Fatalf("expected %d field errors, got %+v", tt.fields, p.Errors)
			}
		})
	}
}

func TestHTTPErrorHandler_RoutingErrors(t *testing.T) {
	e := newEcho(func(c *echo.Context) error { return nil })

	rec := serve(e, http.MethodGet, "/missing", "")
	if rec.Code != http.StatusNotFound || decodeProblem(t, rec).Message != "resource not found" {
		t.Fatalf("unexpected 404 response %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodPut, "/v1/thing", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if msg := decodeProblem(t, rec).Message; msg != "method PUT not allowed" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHTTPErrorHandler_CBOR(t *testing.T) {
	e := newEcho(func(c *echo.Context) error { return Error404("profile not found") })
	rec := serve(e, http.MethodGet, "/v1/thing", "application/cbor")

	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+cbor" {
		t.Fatalf("expected application/problem+cbor, got %q", ct)
	}
	var p ProblemDetails
	if err := cbor.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode cbor: %v", err)
	}
	if p.Status != http.StatusNotFound || p.Message != "profile not found" {
		t.Fatalf("unexpected problem %+v", p)
	}
}

func TestHTTPErrorHandler_VaryAndEscaping(t *testing.T) {
	e := newEcho(func(c *echo.Context) error {
		c.Response().Header().Add("Vary", "accept")
		return Error400("theme must be one of: <ocean>")
	})
	rec := serve(e, http.MethodGet, "/v1/thing", "")

	vary := rec.Header().Values("Vary")
	if !slices.Equal(vary, []string{"accept", "Origin"}) {
		t.Fatalf("unexpected Vary values %v", vary)
	}
	if body := rec.Body.String(); !json.Valid([]byte(body)) || !strings.Contains(body, "<ocean>") {
		t.Fatalf("expected unescaped HTML characters, got %s", body)
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := newEcho(func(c *echo.Context) error {
		_ = c.String(http.StatusAccepted, "partial")
		return errors.New("late failure")
	})
	rec := serve(e, http.MethodGet, "/v1/thing", "")

	if rec.Code != http.StatusAccepted || rec.Body.String() != "partial" {
		t.Fatalf("expected untouched committed response, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRecoverer(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string", "kaboom"},
		{"error", errors.New("kaboom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho(func(c *echo.Context) error { panic(tt.value) })
			rec := serve(e, http.MethodGet, "/v1/thing", "")

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			if p := decodeProblem(t, rec); p.Message != "internal server error" {
				t.Fatalf("unexpected problem %+v", p)
			}
		})
	}
}

func TestRecoverer_ReraisesAbort(t *testing.T) {
	e := newEcho(func(c *echo.Context) error { panic(http.ErrAbortHandler) })

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	serve(e, http.MethodGet, "/v1/thing", "")
	t.Fatal("expected panic")
}
