package routes

import (
	"github.com/labstack/echo/v5"

	"github.com/janisto/linkglyph/internal/http/v1/profile"
	"github.com/janisto/linkglyph/internal/http/v1/users"
	"github.com/janisto/linkglyph/internal/platform/auth"
	profilesvc "github.com/janisto/linkglyph/internal/service/profile"
)

// Register wires all v1 routes into the provided group.
// A nil verifier disables token handling; profiles are then owned only
// through an explicit ownerId.
func Register(v1 *echo.Group, verifier auth.Verifier, svc profilesvc.Service) {
	cards := v1
	if verifier != nil {
		cards = v1.Group("", auth.OptionalMiddleware(verifier))
	}
	profile.Register(cards, svc)

	users.Register(v1, svc)
}
