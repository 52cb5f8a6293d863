package respond

import (
	"fmt"
	"net/http"
)

// ProblemDetails is an RFC 9457 problem document. OK and Message mirror the
// {ok, error} envelope the profile endpoints return on success.
type ProblemDetails struct {
	Type     string        `json:"type"               cbor:"type"               example:"about:blank"`
	Title    string        `json:"title"              cbor:"title"              example:"Not Found"`
	Status   int           `json:"status"             cbor:"status"             example:"404"`
	Detail   string        `json:"detail,omitempty"   cbor:"detail,omitempty"   example:"profile not found"`
	Instance string        `json:"instance,omitempty" cbor:"instance,omitempty" example:"/v1/profile/demo1"`
	OK       bool          `json:"ok"                 cbor:"ok"                 example:"false"`
	Message  string        `json:"error"              cbor:"error"              example:"profile not found"`
	Errors   []ErrorDetail `json:"errors,omitempty"   cbor:"errors,omitempty"`
}

// ErrorDetail describes one rejected input field.
type ErrorDetail struct {
	Message  string `json:"message"            cbor:"message"            example:"fullName is required"`
	Location string `json:"location,omitempty" cbor:"location,omitempty" example:"fullName"`
	Value    string `json:"value,omitempty"    cbor:"value,omitempty"    example:""`
}

func (p *ProblemDetails) Error() string {
	if p.Detail == "" {
		return fmt.Sprintf("%d %s", p.Status, p.Title)
	}
	return fmt.Sprintf("%d %s: %s", p.Status, p.Title, p.Detail)
}

// StatusCode lets Echo read the status without unwrapping the problem.
func (p *ProblemDetails) StatusCode() int {
	return p.Status
}

// finalize fills the envelope fields derived from the others.
func (p *ProblemDetails) finalize(instance string) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Instance == "" {
		p.Instance = instance
	}
	p.OK = false
	switch {
	case p.Message != "":
	case p.Detail != "":
		p.Message = p.Detail
	default:
		p.Message = p.Title
	}
}

// NewError builds a problem for status with detail as the client-facing message.
func NewError(status int, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// Error400 reports rejected input, optionally per field.
func Error400(detail string, fields ...ErrorDetail) *ProblemDetails {
	p := NewError(http.StatusBadRequest, detail)
	p.Errors = fields
	return p
}

func Error401(detail string) *ProblemDetails { return NewError(http.StatusUnauthorized, detail) }

func Error403(detail string) *ProblemDetails { return NewError(http.StatusForbidden, detail) }

func Error404(detail string) *ProblemDetails { return NewError(http.StatusNotFound, detail) }

func Error409(detail string) *ProblemDetails { return NewError(http.StatusConflict, detail) }

func Error500(detail string) *ProblemDetails { return NewError(http.StatusInternalServerError, detail) }

func Error503(detail string) *ProblemDetails { return NewError(http.StatusServiceUnavailable, detail) }
