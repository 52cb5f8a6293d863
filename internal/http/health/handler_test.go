package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func serve(t *testing.T, checks map[string]Check, path, accept string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	e := echo.New()
	Register(e, "1.2.3", checks)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, body
}

func TestLiveness(t *testing.T) {
	failing := map[string]Check{"store": func(context.Context) error { return errors.New("down") }}

	rec, body := serve(t, failing, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body.Status != "healthy" || body.Version != "1.2.3" {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Checks != nil {
		t.Fatal("liveness must not run dependency checks")
	}
}

func TestLiveness_AlwaysJSON(t *testing.T) {
	rec, _ := serve(t, nil, "/health", "application/cbor")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
}

func TestReadiness_AllOK(t *testing.T) {
	ok := func(context.Context) error { return nil }

	rec, body := serve(t, map[string]Check{"store": ok, "cache": ok}, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body.Status != "ready" || body.Checks["store"] != "ok" || body.Checks["cache"] != "ok" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestReadiness_NoChecks(t *testing.T) {
	rec, body := serve(t, nil, "/health/ready", "")
	if rec.Code != http.StatusOK || body.Status != "ready" {
		t.Fatalf("expected ready with no checks, got %d %+v", rec.Code, body)
	}
}

func TestReadiness_FailingCheck(t *testing.T) {
	checks := map[string]Check{
		"store": func(context.Context) error { return nil },
		"cache": func(context.Context) error { return errors.New("connection refused") },
	}

	rec, body := serve(t, checks, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body.Status != "unavailable" || body.Checks["cache"] != "unavailable" || body.Checks["store"] != "ok" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestReadiness_CheckTimesOut(t *testing.T) {
	slow := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
			return nil
		}
	}

	start := time.Now()
	rec, _ := serve(t, map[string]Check{"store": slow}, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > checkTimeout+time.Second {
		t.Fatalf("expected check to be cut off near %v, took %v", checkTimeout, elapsed)
	}
}

func TestReadiness_FailureDoesNotCancelOtherChecks(t *testing.T) {
	checks := map[string]Check{
		"cache": func(context.Context) error { return errors.New("connection refused") },
		"store": func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return ctx.Err()
		},
		"queue": func(context.Context) error { return errors.New("no route") },
	}

	rec, body := serve(t, checks, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	want := map[string]string{"cache": "unavailable", "store": "ok", "queue": "unavailable"}
	for name, status := range want {
		if body.Checks[name] != status {
			t.Fatalf("check %s: expected %q, got %q (%+v)", name, status, body.Checks[name], body)
		}
	}
}
