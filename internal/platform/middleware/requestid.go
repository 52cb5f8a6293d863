package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

const (
	// HeaderXRequestID is the canonical request ID header name.
	HeaderXRequestID = "X-Request-ID"

	// ContextKeyRequestID is the echo context key holding the request ID.
	ContextKeyRequestID = "request_id"

	maxRequestIDLength = 128
)

// isValidRequestID accepts 1-128 printable ASCII bytes, which keeps caller
// supplied IDs from injecting line breaks into logs.
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > maxRequestIDLength {
		return false
	}
	for i := range len(id) {
		if c := id[i]; c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// newRequestID returns a time-ordered UUIDv7, falling back to v4.
func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// RequestID returns Echo middleware that assigns each request an ID, reusing
// a valid incoming X-Request-ID, and echoes it in the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			reqID := c.Request().Header.Get(HeaderXRequestID)
			if !isValidRequestID(reqID) {
				reqID = newRequestID()
			}

			c.Set(ContextKeyRequestID, reqID)
			c.Response().Header().Set(HeaderXRequestID, reqID)

			return next(c)
		}
	}
}
