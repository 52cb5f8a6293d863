package middleware

import "github.com/labstack/echo/v5"

// Vary returns Echo middleware that lists request headers that select the
// response representation (RFC 9110 Section 12.5.5). The default is Accept,
// which picks JSON or CBOR.
func Vary(headers ...string) echo.MiddlewareFunc {
	if len(headers) == 0 {
		headers = []string{"Accept"}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			for _, name := range headers {
				h.Add("Vary", name)
			}
			return next(c)
		}
	}
}
