package users

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/labstack/echo/v5"

	httpprofile "github.com/janisto/linkglyph/internal/http/v1/profile"
	applog "github.com/janisto/linkglyph/internal/platform/logging"
	"github.com/janisto/linkglyph/internal/platform/pagination"
	"github.com/janisto/linkglyph/internal/platform/respond"
	profilesvc "github.com/janisto/linkglyph/internal/service/profile"
)

const cursorType = "profile"

// Register wires user routes into the provided group.
func Register(g *echo.Group, svc profilesvc.Service) {
	g.POST("/users", handleCreateUser(svc))
	g.GET("/users/:id", handleGetUser(svc))
	g.GET("/users/:id/profiles", handleListProfiles(svc))
}

// handleCreateUser godoc
//
//	@Summary		Create user
//	@Description	Registers an owning identity that profiles may reference through ownerId
//	@Tags			users
//	@Accept			json
//	@Produce		json,application/cbor
//	@Param			body	body		CreateInput	true	"User fields"
//	@Success		201		{object}	User
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		409		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			201		{string}	Location	"URI of the created user"
//	@Router			/users [post]
func handleCreateUser(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input CreateInput
		if err := c.Bind(&input); err != nil {
			return respond.Error400("invalid request body")
		}
		input.Email = strings.TrimSpace(input.Email)
		if err := c.Validate(&input); err != nil {
			return err
		}

		ctx := c.Request().Context()
		u, err := svc.CreateUser(ctx, profilesvc.CreateUserParams{
			Email: input.Email,
			Name:  input.Name,
		})
		if err != nil {
			return mapServiceError(ctx, err)
		}

		c.Response().Header().Set("Location", "/v1/users/"+url.PathEscape(u.ID))
		return respond.Negotiate(c, http.StatusCreated, toHTTPUser(u))
	}
}

// handleGetUser godoc
//
//	@Summary		Get user
//	@Tags			users
//	@Produce		json,application/cbor
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	User
//	@Failure		404	{object}	respond.ProblemDetails
//	@Failure		500	{object}	respond.ProblemDetails
//	@Router			/users/{id} [get]
func handleGetUser(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var param IDParam
		if err := c.Bind(&param); err != nil {
			return respond.Error404("user not found")
		}
		if err := c.Validate(&param); err != nil {
			return respond.Error404("user not found")
		}

		ctx := c.Request().Context()
		u, err := svc.GetUser(ctx, param.ID)
		if err != nil {
			return mapServiceError(ctx, err)
		}

		return respond.Negotiate(c, http.StatusOK, toHTTPUser(u))
	}
}

// handleListProfiles godoc
//
//	@Summary		List a user's profiles
//	@Description	Returns a paginated list of profile cards owned by the user, ordered by handle
//	@Tags			users
//	@Produce		json,application/cbor
//	@Param			id		path		string	true	"User ID"
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Param			limit	query		int		false	"Items per page"	minimum(1)	maximum(100)
//	@Success		200		{object}	ProfileList
//	@Failure		400		{object}	respond.ProblemDetails
//	@Failure		404		{object}	respond.ProblemDetails
//	@Failure		500		{object}	respond.ProblemDetails
//	@Header			200		{string}	Link	"RFC 8288 pagination links"
//	@Router			/users/{id}/profiles [get]
func handleListProfiles(svc profilesvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input ListProfilesInput
		if err := c.Bind(&input); err != nil {
			return respond.Error400("invalid query parameters")
		}
		if err := c.Validate(&IDParam{ID: input.ID}); err != nil {
			return respond.Error404("user not found")
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		cursor, err := input.Resolve(cursorType)
		switch {
		case errors.Is(err, pagination.ErrCursorType):
			return respond.Error400("cursor type mismatch")
		case err != nil:
			return respond.Error400("invalid cursor format")
		}

		ctx := c.Request().Context()
		if _, err := svc.GetUser(ctx, input.ID); err != nil {
			return mapServiceError(ctx, err)
		}

		profiles, err := svc.ListByOwner(ctx, input.ID)
		if err != nil {
			return mapServiceError(ctx, err)
		}
		if cursor.Value != "" && !slices.ContainsFunc(profiles, func(p *profilesvc.Profile) bool {
			return p.Handle == cursor.Value
		}) {
			return respond.Error400("cursor references unknown profile")
		}

		query := url.Values{}
		if input.Limit != 0 {
			query.Set("limit", c.QueryParam("limit"))
		}

		result := pagination.Paginate(
			profiles,
			cursor,
			input.PageSize(),
			cursorType,
			func(p *profilesvc.Profile) string { return p.Handle },
			"/v1/users/"+url.PathEscape(input.ID)+"/profiles",
			query,
		)

		if result.LinkHeader != "" {
			c.Response().Header().Set("Link", result.LinkHeader)
		}

		items := make([]httpprofile.Card, len(result.Items))
		for i, p := range result.Items {
			items[i] = httpprofile.ToCard(p)
		}
		return respond.Negotiate(c, http.StatusOK, ProfileList{Items: items, Total: result.Total})
	}
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return respond.Error404("user not found")
	case errors.Is(err, profilesvc.ErrConflict):
		return respond.Error409("conflict, choose another identifier")
	default:
		applog.LogError(ctx, "unexpected service error", err)
		return respond.Error500("internal error")
	}
}
