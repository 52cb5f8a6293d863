package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCursor is returned when a cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is an opaque position in a keyed listing: Value is the key of the
// last item on the previous page.
type Cursor struct {
	Type  string
	Value string
}

// Encode returns the URL-safe form of the cursor.
func (c Cursor) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(c.Type + ":" + c.Value))
}

// DecodeCursor parses an encoded cursor. An empty string is the zero Cursor.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	typ, value, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Cursor{}, fmt.Errorf("%w: missing separator", ErrInvalidCursor)
	}
	return Cursor{Type: typ, Value: value}, nil
}
