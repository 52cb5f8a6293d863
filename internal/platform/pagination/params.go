package pagination

import (
	"errors"
	"fmt"
)

// Page size bounds for list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrCursorType is returned when a cursor was issued by a different listing.
var ErrCursorType = errors.New("cursor type mismatch")

// Params holds the cursor and limit query parameters. Embed it in a list
// endpoint's input struct.
type Params struct {
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit"  validate:"omitempty,min=1,max=100"`
}

// PageSize returns Limit, or DefaultLimit when unset.
func (p Params) PageSize() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return min(p.Limit, MaxLimit)
}

// Resolve decodes the cursor and checks it belongs to a listing of cursorType.
func (p Params) Resolve(cursorType string) (Cursor, error) {
	cur, err := DecodeCursor(p.Cursor)
	if err != nil {
		return Cursor{}, err
	}
	if p.Cursor != "" && cur.Type != cursorType {
		return Cursor{}, fmt.Errorf("%w: got %q", ErrCursorType, cur.Type)
	}
	return cur, nil
}
