package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
)

// Theme and accent applied when a profile is first stored without them.
const (
	DefaultTheme  = "ocean"
	DefaultAccent = "#22d3ee"
)

// Themes lists the recognized card themes.
var Themes = []string{"ocean", "aurora", "sunset", "galaxy"}

var (
	// ErrNotFound is returned when a profile or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a secondary unique key (user email) is already taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidRelation is returned when a profile references an owner that does not exist.
	ErrInvalidRelation = errors.New("invalid relation")
)

// Profile is a stored profile card keyed by handle.
type Profile struct {
	Handle    string
	FullName  string
	Title     *string
	Bio       *string
	Location  *string
	Website   *string
	Avatar    *string
	Theme     string
	Accent    string
	OwnerID   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is an owning identity that profiles may reference.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertParams carries a validated submission. Handle must already be lowercase.
// Nil optional fields keep their stored value on update.
type UpsertParams struct {
	Handle   string
	FullName string
	Title    *string
	Bio      *string
	Location *string
	Website  *string
	Avatar   *string
	Theme    *string
	Accent   *string
	OwnerID  *string
}

// CreateUserParams holds fields for registering a user.
type CreateUserParams struct {
	Email string
	Name  string
}

// EnsureUserParams identifies an externally authenticated user.
type EnsureUserParams struct {
	ID    string
	Email string
	Name  string
}

// Service defines profile and owner persistence.
type Service interface {
	Upsert(ctx context.Context, params UpsertParams) (*Profile, error)
	FindByHandle(ctx context.Context, handle string) (*Profile, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Profile, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	EnsureUser(ctx context.Context, params EnsureUserParams) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
}

// newProfile builds the record inserted for a handle seen for the first time.
func newProfile(params UpsertParams, now time.Time) *Profile {
	p := &Profile{
		Handle:    params.Handle,
		Theme:     DefaultTheme,
		Accent:    DefaultAccent,
		CreatedAt: now,
	}
	applyUpsert(p, params, now)
	return p
}

// applyUpsert copies provided fields onto p, leaving omitted optional fields untouched.
func applyUpsert(p *Profile, params UpsertParams, now time.Time) {
	p.FullName = params.FullName
	assignIfSet(&p.Title, params.Title)
	assignIfSet(&p.Bio, params.Bio)
	assignIfSet(&p.Location, params.Location)
	assignIfSet(&p.Website, params.Website)
	assignIfSet(&p.Avatar, params.Avatar)
	assignIfSet(&p.OwnerID, params.OwnerID)
	if v := deref(params.Theme); v != "" {
		p.Theme = v
	}
	if v := deref(params.Accent); v != "" {
		p.Accent = v
	}
	p.UpdatedAt = now
}

func assignIfSet(dst **string, src *string) {
	if v := deref(src); v != "" {
		*dst = &v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneProfile(p *Profile) *Profile {
	c := *p
	c.Title = cloneString(p.Title)
	c.Bio = cloneString(p.Bio)
	c.Location = cloneString(p.Location)
	c.Website = cloneString(p.Website)
	c.Avatar = cloneString(p.Avatar)
	c.OwnerID = cloneString(p.OwnerID)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// categorizeError returns a safe category string for audit logging.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidRelation):
		return "invalid_relation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

func logAudit(ctx context.Context, action, actorID, resource, resourceID string, err error) {
	ev := applog.AuditEvent{
		Action:     action,
		ActorID:    actorID,
		Resource:   resource,
		ResourceID: resourceID,
	}
	if err != nil {
		ev.Reason = categorizeError(err)
	}
	applog.LogAudit(ctx, ev)
}
