package profile

// UpsertInput for POST /profile. Empty optional fields count as omitted.
type UpsertInput struct {
	Handle   string `json:"handle"   validate:"required,handle"                          example:"demo1"`
	FullName string `json:"fullName" validate:"required,max=100"                         example:"Ada Lovelace"`
	Title    string `json:"title"    validate:"omitempty,max=100"                        example:"Engineer"`
	Bio      string `json:"bio"      validate:"omitempty,max=280"                        example:"Writes the first programs."`
	Location string `json:"location" validate:"omitempty,max=100"                        example:"London"`
	Website  string `json:"website"  validate:"omitempty,http_url"                       example:"https://example.com"`
	Avatar   string `json:"avatar"                                                       example:"iVBORw0KGgo="`
	Theme    string `json:"theme"    validate:"omitempty,oneof=ocean aurora sunset galaxy" example:"galaxy"`
	Accent   string `json:"accent"   validate:"omitempty,hexcolor3or6"                   example:"#22d3ee"`
	OwnerID  string `json:"ownerId"  validate:"omitempty,max=128,printascii,excludesall=/" example:"3f1c0e6a-8d43-4a59-9a51-2a1f0d5e7b10"`
}

// HandleParam is the path parameter of GET /profile/{handle}.
type HandleParam struct {
	Handle string `param:"handle" validate:"required,handle"`
}
