package users

import "github.com/janisto/linkglyph/internal/platform/pagination"

// CreateInput for POST /users.
type CreateInput struct {
	Email string `json:"email" validate:"required,email,max=320" example:"ada@example.com"`
	Name  string `json:"name"  validate:"omitempty,max=200"      example:"Ada Lovelace"`
}

// IDParam is the user id path parameter.
type IDParam struct {
	ID string `param:"id" validate:"required,max=128,printascii,excludesall=/"`
}

// ListProfilesInput defines path and query parameters for GET /users/{id}/profiles.
type ListProfilesInput struct {
	ID string `param:"id"`
	pagination.Params
}
