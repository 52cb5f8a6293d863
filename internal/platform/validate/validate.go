package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	handlePattern   = regexp.MustCompile(`^[a-zA-Z0-9_]{2,32}$`)
	hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// FieldError represents a single field validation failure.
type FieldError struct {
	Field   string
	Message string
	Value   string
}

// ValidationError is returned when input validation fails.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	return e.Message
}

// First returns the message of the highest-priority field failure, or the
// overall message when no field failed.
func (e *ValidationError) First() string {
	if len(e.Fields) > 0 {
		return e.Fields[0].Message
	}
	return e.Message
}

// AppValidator wraps go-playground/validator for Echo's Validator interface.
type AppValidator struct {
	v *validator.Validate
}

// New creates a new AppValidator with the application's custom tags registered:
// "handle" (2-32 ASCII letters, digits or underscores) and "hexcolor3or6"
// (#RGB or #RRGGBB).
func New() *AppValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := tagName(fld, "json"); name != "" {
			return name
		}
		if name := tagName(fld, "query"); name != "" {
			return name
		}
		if name := tagName(fld, "param"); name != "" {
			return name
		}
		return fld.Name
	})

	mustRegister(v, "handle", matchString(handlePattern))
	mustRegister(v, "hexcolor3or6", matchString(hexColorPattern))

	return &AppValidator{v: v}
}

// Validate validates the given struct and returns a *ValidationError on failure.
// Missing required fields are reported before any other failure; the remaining
// failures keep struct field order.
func (av *AppValidator) Validate(i any) error {
	err := av.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]FieldError, len(ve))
		for idx, fe := range ve {
			fields[idx] = FieldError{
				Field:   fe.Field(),
				Message: buildMessage(fe),
				Value:   fmt.Sprintf("%v", fe.Value()),
			}
		}
		required := func(idx int) bool { return ve[idx].Tag() == "required" }
		order := make([]int, len(ve))
		for idx := range order {
			order[idx] = idx
		}
		slices.SortStableFunc(order, func(a, b int) int {
			switch ra, rb := required(a), required(b); {
			case ra && !rb:
				return -1
			case rb && !ra:
				return 1
			default:
				return 0
			}
		})
		sorted := make([]FieldError, len(fields))
		for pos, idx := range order {
			sorted[pos] = fields[idx]
		}
		return &ValidationError{
			Message: "validation failed",
			Fields:  sorted,
		}
	}

	return &ValidationError{Message: err.Error()}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.String && re.MatchString(fl.Field().String())
	}
}

func tagName(fld reflect.StructField, tag string) string {
	name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
	if name == "" || name == "-" {
		return ""
	}
	return name
}

func buildMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + fe.Param() + " characters"
		}
		return field + " must be at most " + fe.Param()
	case "email":
		return field + " must be a valid email address"
	case "url", "http_url":
		return field + " must be a valid URL"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "handle":
		return field + " must be 2-32 letters, digits or underscores"
	case "hexcolor3or6":
		return field + " must be a hex color like #22d3ee or #fff"
	case "printascii":
		return field + " must contain printable characters only"
	default:
		return field + " failed on " + fe.Tag() + " validation"
	}
}
