package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
	"github.com/janisto/linkglyph/internal/platform/respond"
)

// userContextKey is the context key for the authenticated user.
type userContextKey struct{}

// OptionalMiddleware authenticates the request when an Authorization header is
// present and passes anonymous requests through. A header that is present but
// malformed or carries a bad token is still rejected.
func OptionalMiddleware(verifier Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			if err := authenticate(c, verifier); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func authenticate(c *echo.Context, verifier Verifier) error {
	token, err := ExtractBearerToken(c.Request().Header.Get("Authorization"))
	if err != nil {
		applog.LogWarn(c.Request().Context(), "auth failed: missing or invalid header",
			slog.String("reason", "no_token"))
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
		return respond.Error401("missing or invalid authorization header")
	}

	user, err := verifier.Verify(c.Request().Context(), token)
	if err != nil {
		reason := categorizeAuthError(err)
		applog.LogWarn(c.Request().Context(), "auth failed: token verification failed",
			slog.String("reason", reason))

		if errors.Is(err, ErrCertificateFetch) {
			c.Response().Header().Set("Retry-After", "30")
			return respond.Error503("authentication service temporarily unavailable")
		}
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
		return respond.Error401("invalid or expired token")
	}

	ctx := context.WithValue(c.Request().Context(), userContextKey{}, user)
	c.SetRequest(c.Request().WithContext(ctx))

	return nil
}

// categorizeAuthError returns a safe category string for logging.
func categorizeAuthError(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrUserDisabled):
		return "user_disabled"
	case errors.Is(err, ErrCertificateFetch):
		return "certificate_fetch_failed"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}

// UserFromContext retrieves the authenticated user from standard context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *FirebaseUser {
	user, _ := ctx.Value(userContextKey{}).(*FirebaseUser)
	return user
}
