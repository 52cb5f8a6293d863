package middleware

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

// CORS returns Echo middleware for browser clients of the card API. With no
// origins every origin is allowed. Link and Location are exposed so clients can
// follow pagination and created-user links.
func CORS(origins ...string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			HeaderXRequestID,
			"traceparent",
			"X-Cloud-Trace-Context",
		},
		ExposeHeaders: []string{
			"Link",
			"Location",
			HeaderXRequestID,
		},
		MaxAge: 600,
	})
}
