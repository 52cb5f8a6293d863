package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/labstack/echo/v5"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
	"github.com/janisto/linkglyph/internal/platform/validate"
)

// addVary appends values to the Vary header, skipping ones already listed.
func addVary(h http.Header, values ...string) {
	seen := make(map[string]bool)
	for _, line := range h.Values("Vary") {
		for v := range strings.SplitSeq(line, ",") {
			seen[strings.ToLower(strings.TrimSpace(v))] = true
		}
	}
	for _, v := range values {
		if key := strings.ToLower(v); !seen[key] {
			seen[key] = true
			h.Add("Vary", v)
		}
	}
}

// writeProblem encodes p as problem+cbor or problem+json depending on Accept.
func writeProblem(w http.ResponseWriter, r *http.Request, p ProblemDetails) {
	p.finalize(r.URL.Path)
	addVary(w.Header(), "Origin", "Accept")

	if wantsCBOR(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", mimeProblemCBOR)
		w.WriteHeader(p.Status)
		_ = cbor.NewEncoder(w).Encode(p)
		return
	}

	w.Header().Set("Content-Type", mimeProblemJSON)
	w.WriteHeader(p.Status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(p)
}

// problemFor converts any handler error into the problem sent to the client.
// Unknown errors become an opaque 500.
func problemFor(method string, err error) ProblemDetails {
	var (
		pd *ProblemDetails
		ve *validate.ValidationError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &pd):
		return *pd
	case errors.As(err, &ve):
		p := Error400(ve.First())
		for _, f := range ve.Fields {
			p.Errors = append(p.Errors, ErrorDetail{Message: f.Message, Location: f.Field, Value: f.Value})
		}
		return *p
	case errors.Is(err, echo.ErrNotFound):
		return *Error404("resource not found")
	case errors.Is(err, echo.ErrMethodNotAllowed):
		return *NewError(http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", method))
	case errors.As(err, &he):
		return *NewError(he.Code, he.Message)
	default:
		return *Error500("internal server error")
	}
}

func committed(c *echo.Context) bool {
	resp, err := echo.UnwrapResponse(c.Response())
	return err == nil && resp.Committed
}

// NewHTTPErrorHandler renders every error that reaches Echo as a problem document.
func NewHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(c *echo.Context, err error) {
		if committed(c) {
			return
		}
		p := problemFor(c.Request().Method, err)
		if p.Status >= http.StatusInternalServerError {
			applog.LogError(c.Request().Context(), "request failed", err,
				slog.Int("status", p.Status))
		}
		writeProblem(c.Response(), c.Request(), p)
	}
}

// Recoverer turns a handler panic into a 500 problem. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recoverer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				applog.LoggerFromContext(c.Request().Context()).Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if committed(c) {
					return
				}
				writeProblem(c.Response(), c.Request(), *Error500("internal server error"))
			}()
			return next(c)
		}
	}
}
