package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/janisto/linkglyph/internal/platform/auth"
	applog "github.com/janisto/linkglyph/internal/platform/logging"
	"github.com/janisto/linkglyph/internal/platform/respond"
	profilesvc "github.com/janisto/linkglyph/internal/service/profile"
)

// Register wires profile routes into the provided group.
// Callers may apply auth.OptionalMiddleware to the group so that a verified
// token becomes the profile owner.
func Register(g *echo.Group, svc profilesvc.Service) {
	g.POST("/profile", handleUpsertProfile(svc))
	g.GET("/profile/:handle", handleGetProfile(svc))
}

// handleUpsertProfile godoc
//
//	@Summary		Create or update profile
//	@Description	Stores the profile card for a handle. Resubmitting a handle updates it; omitted optional fields keep their stored values.
//	@Tags			profile
//	@Accept			json
//	@Produce		json,application/cbor
//	@Param			body	body		UpsertInput	true	"Profile card fields"
//	@Success		200		{object}	UpsertResponse
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		401		{object}	respond.ProblemDetails
//	@Failure		403		{object}	respond.ProblemDetails
//	@Failure		409		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Security		BearerAuth
//	@Router			/profile [post]
func handleUpsertProfile(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input UpsertInput
		if err := c.Bind(&input); err != nil {
			return respond.Error400("invalid request body")
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		handle := strings.ToLower(input.Handle)
		ctx := applog.WithAttrs(c.Request().Context(), slog.String("handle", handle))
		c.SetRequest(c.Request().WithContext(ctx))

		ownerID := input.OwnerID
		if user := auth.UserFromContext(ctx); user != nil {
			if ownerID != "" && ownerID != user.UID {
				return respond.Error403("ownerId does not match the authenticated user")
			}
			if _, err := svc.EnsureUser(ctx, profilesvc.EnsureUserParams{
				ID:    user.UID,
				Email: user.Email,
				Name:  user.Name,
			}); err != nil {
				return mapServiceError(ctx, err)
			}
			ownerID = user.UID
		}

		p, err := svc.Upsert(ctx, profilesvc.UpsertParams{
			Handle:   handle,
			FullName: input.FullName,
			Title:    optional(input.Title),
			Bio:      optional(input.Bio),
			Location: optional(input.Location),
			Website:  optional(input.Website),
			Avatar:   optional(input.Avatar),
			Theme:    optional(input.Theme),
			Accent:   optional(input.Accent),
			OwnerID:  optional(ownerID),
		})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		return respond.Negotiate(c, http.StatusOK, UpsertResponse{OK: true, Handle: p.Handle})
	}
}

// handleGetProfile godoc
//
//	@Summary		Get profile card
//	@Description	Returns the public display shape of the profile stored under a handle
//	@Tags			profile
//	@Produce		json,application/cbor
//	@Param			handle	path		string	true	"Profile handle"
//	@Success		200		{object}	Card
//	@Failure		404		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Router			/profile/{handle} [get]
func handleGetProfile(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var param HandleParam
		if err := c.Bind(&param); err != nil {
			return respond.Error404("profile not found")
		}
		// A handle that could never be stored is simply absent.
		if err := c.Validate(&param); err != nil {
			return respond.Error404("profile not found")
		}

		ctx := applog.WithAttrs(c.Request().Context(), slog.String("handle", param.Handle))
		p, err := svc.FindByHandle(ctx, param.Handle)
		if err != nil {
			return mapServiceError(ctx, err)
		}

		return respond.Negotiate(c, http.StatusOK, ToCard(p))
	}
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return respond.Error404("profile not found")
	case errors.Is(err, profilesvc.ErrConflict):
		return respond.Error409("conflict, choose another identifier")
	case errors.Is(err, profilesvc.ErrInvalidRelation):
		return respond.Error400("invalid relation")
	default:
		applog.LogError(ctx, "unexpected service error", err)
		return respond.Error500("internal error")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
