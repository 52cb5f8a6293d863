package users

import (
	httpprofile "github.com/janisto/linkglyph/internal/http/v1/profile"
	"github.com/janisto/linkglyph/internal/platform/timeutil"
	profilesvc "github.com/janisto/linkglyph/internal/service/profile"
)

// User is the response shape of a user.
type User struct {
	ID        string        `json:"id"             cbor:"id"             example:"3f1c0e6a-8d43-4a59-9a51-2a1f0d5e7b10"`
	Email     string        `json:"email"          cbor:"email"          example:"ada@example.com"`
	Name      string        `json:"name,omitempty" cbor:"name,omitempty" example:"Ada Lovelace"`
	CreatedAt timeutil.Time `json:"createdAt"      cbor:"createdAt"      example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt timeutil.Time `json:"updatedAt"      cbor:"updatedAt"      example:"2024-01-15T10:30:00.000Z"`
}

// ProfileList is a page of profile cards owned by a user.
type ProfileList struct {
	Items []httpprofile.Card `json:"items" cbor:"items"`
	Total int                `json:"total" cbor:"total" example:"3"`
}

func toHTTPUser(u *profilesvc.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: timeutil.NewTime(u.CreatedAt),
		UpdatedAt: timeutil.NewTime(u.UpdatedAt),
	}
}
