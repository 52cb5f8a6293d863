package profile

import profilesvc "github.com/janisto/linkglyph/internal/service/profile"

// UpsertResponse is returned after a profile is stored.
type UpsertResponse struct {
	OK     bool   `json:"ok"     cbor:"ok"     example:"true"`
	Handle string `json:"handle" cbor:"handle" example:"demo1"`
}

// Card is the public display shape of a profile.
type Card struct {
	Handle   string  `json:"handle"             cbor:"handle"             example:"demo1"`
	FullName string  `json:"fullName"           cbor:"fullName"           example:"Ada Lovelace"`
	Title    *string `json:"title,omitempty"    cbor:"title,omitempty"    example:"Engineer"`
	Bio      *string `json:"bio,omitempty"      cbor:"bio,omitempty"      example:"Writes the first programs."`
	Location *string `json:"location,omitempty" cbor:"location,omitempty" example:"London"`
	Website  *string `json:"website,omitempty"  cbor:"website,omitempty"  example:"https://example.com"`
	Avatar   *string `json:"avatar,omitempty"   cbor:"avatar,omitempty"   example:"iVBORw0KGgo="`
	Theme    string  `json:"theme"              cbor:"theme"              example:"galaxy"`
	Accent   string  `json:"accent"             cbor:"accent"             example:"#22d3ee"`
}

// ToCard maps a stored profile to its display shape, filling theme and accent
// defaults and dropping empty optional fields.
func ToCard(p *profilesvc.Profile) Card {
	card := Card{
		Handle:   p.Handle,
		FullName: p.FullName,
		Title:    nonEmpty(p.Title),
		Bio:      nonEmpty(p.Bio),
		Location: nonEmpty(p.Location),
		Website:  nonEmpty(p.Website),
		Avatar:   nonEmpty(p.Avatar),
		Theme:    p.Theme,
		Accent:   p.Accent,
	}
	if card.Theme == "" {
		card.Theme = profilesvc.DefaultTheme
	}
	if card.Accent == "" {
		card.Accent = profilesvc.DefaultAccent
	}
	return card
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
