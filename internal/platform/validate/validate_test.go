package validate

import (
	"errors"
	"strings"
	"testing"
)

type cardInput struct {
	Handle   string `json:"handle"   validate:"required,handle"`
	FullName string `json:"fullName" validate:"required,max=100"`
	Bio      string `json:"bio"      validate:"omitempty,max=280"`
	Website  string `json:"website"  validate:"omitempty,http_url"`
	Theme    string `json:"theme"    validate:"omitempty,oneof=ocean aurora sunset galaxy"`
	Accent   string `json:"accent"   validate:"omitempty,hexcolor3or6"`
}

type userInput struct {
	Email string `json:"email" validate:"required,email"`
}

type listInput struct {
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit"  validate:"omitempty,min=1,max=100"`
}

type pathInput struct {
	ID string `param:"id" validate:"required"`
}

func validCard() cardInput {
	return cardInput{Handle: "demo1", FullName: "A B"}
}

func firstField(t *testing.T, err error) FieldError {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Fields) == 0 {
		t.Fatal("expected field errors")
	}
	if ve.First() != ve.Fields[0].Message {
		t.Fatalf("First() = %q, want %q", ve.First(), ve.Fields[0].Message)
	}
	return ve.Fields[0]
}

func TestValidate_ValidInput(t *testing.T) {
	v := New()
	in := validCard()
	in.Bio = strings.Repeat("é", 280)
	in.Website = "https://example.com/me"
	in.Theme = "galaxy"
	in.Accent = "#22D3EE"
	if err := v.Validate(in); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_RequiredReportedFirst(t *testing.T) {
	v := New()
	in := cardInput{Handle: "x", Accent: "red"}

	err := v.Validate(in)
	fe := firstField(t, err)
	if fe.Message != "fullName is required" {
		t.Fatalf("expected required failure first, got %q", fe.Message)
	}

	var ve *ValidationError
	errors.As(err, &ve)
	if ve.Message != "validation failed" {
		t.Fatalf("expected 'validation failed', got %q", ve.Message)
	}
	if len(ve.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %d", len(ve.Fields))
	}
	if ve.Fields[1].Field != "handle" || ve.Fields[2].Field != "accent" {
		t.Fatalf("expected struct order after required, got %+v", ve.Fields)
	}
}

func TestValidate_Handle(t *testing.T) {
	v := New()
	tests := []struct {
		handle string
		ok     bool
	}{
		{"ab", true},
		{"Demo_1", true},
		{strings.Repeat("a", 32), true},
		{"a", false},
		{strings.Repeat("a", 33), false},
		{"has-dash", false},
		{"has space", false},
		{"ünï", false},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			in := validCard()
			in.Handle = tt.handle
			err := v.Validate(in)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected %q to pass, got %v", tt.handle, err)
				}
				return
			}
			fe := firstField(t, err)
			if fe.Message != "handle must be 2-32 letters, digits or underscores" {
				t.Fatalf("unexpected message: %s", fe.Message)
			}
			if fe.Value != tt.handle {
				t.Fatalf("expected value %q, got %q", tt.handle, fe.Value)
			}
		})
	}
}

func TestValidate_HexColor(t *testing.T) {
	v := New()
	for _, accent := range []string{"#fff", "#FFF", "#2de", "#22d3ee", "#A1b2C3"} {
		in := validCard()
		in.Accent = accent
		if err := v.Validate(in); err != nil {
			t.Fatalf("expected %q to pass, got %v", accent, err)
		}
	}
	for _, accent := range []string{"fff", "#ffff", "#22d3e", "gggggg", "#gggggg", "#22d3eg", "#22d3ee0", "red"} {
		in := validCard()
		in.Accent = accent
		fe := firstField(t, v.Validate(in))
		if fe.Field != "accent" {
			t.Fatalf("expected accent failure for %q, got %q", accent, fe.Field)
		}
	}
}

func TestValidate_MaxCountsCharacters(t *testing.T) {
	v := New()
	in := validCard()
	in.Bio = strings.Repeat("é", 281)
	fe := firstField(t, v.Validate(in))
	if fe.Message != "bio must be at most 280 characters" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}
}

func TestValidate_URL(t *testing.T) {
	v := New()
	for _, website := range []string{"https://example.com", "http://example.com/ada?x=1"} {
		in := validCard()
		in.Website = website
		if err := v.Validate(in); err != nil {
			t.Fatalf("expected %q to pass, got %v", website, err)
		}
	}
	for _, website := range []string{"not a url", "javascript:alert(1)", "ftp://example.com/file", "data:text/html,hi"} {
		in := validCard()
		in.Website = website
		fe := firstField(t, v.Validate(in))
		if fe.Message != "website must be a valid URL" {
			t.Fatalf("%q: unexpected message: %s", website, fe.Message)
		}
	}
}

func TestValidate_Oneof(t *testing.T) {
	v := New()
	in := validCard()
	in.Theme = "neon"
	fe := firstField(t, v.Validate(in))
	if fe.Message != "theme must be one of: ocean aurora sunset galaxy" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}
}

func TestValidate_InvalidEmail(t *testing.T) {
	v := New()
	fe := firstField(t, v.Validate(userInput{Email: "not-an-email"}))
	if fe.Field != "email" {
		t.Fatalf("expected field 'email', got %q", fe.Field)
	}
	if fe.Message != "email must be a valid email address" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}
	if fe.Value != "not-an-email" {
		t.Fatalf("expected value 'not-an-email', got %q", fe.Value)
	}
}

func TestValidate_MinMax(t *testing.T) {
	v := New()
	if err := v.Validate(listInput{Limit: 0}); err != nil {
		t.Fatal("limit=0 with omitempty should pass")
	}

	fe := firstField(t, v.Validate(listInput{Limit: 101}))
	if fe.Field != "limit" {
		t.Fatalf("expected query tag name 'limit', got %q", fe.Field)
	}
	if fe.Message != "limit must be at most 100" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}

	fe = firstField(t, v.Validate(listInput{Limit: -1}))
	if fe.Message != "limit must be at least 1" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}
}

func TestValidate_ParamTagNames(t *testing.T) {
	v := New()
	fe := firstField(t, v.Validate(pathInput{}))
	if fe.Field != "id" {
		t.Fatalf("expected param tag name 'id', got %q", fe.Field)
	}
	if fe.Message != "id is required" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}
}

func TestValidationError_ErrorMethod(t *testing.T) {
	ve := &ValidationError{Message: "validation failed"}
	if ve.Error() != "validation failed" {
		t.Fatalf("expected 'validation failed', got %q", ve.Error())
	}
	if ve.First() != "validation failed" {
		t.Fatalf("expected First() to fall back to message, got %q", ve.First())
	}
}
