package timeutil

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const (
	// RFC3339Millis is the wire format for API timestamps.
	RFC3339Millis = "2006-01-02T15:04:05.000Z07:00"
	// RFC3339Micros is the log timestamp format.
	RFC3339Micros = "2006-01-02T15:04:05.000000Z07:00"
)

// Time wraps time.Time so API payloads always carry UTC millisecond timestamps.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// Now returns the current time.
func Now() Time {
	return Time{Time: time.Now()}
}

func (t Time) format() string {
	return t.UTC().Format(RFC3339Millis)
}

func parse(s string) (time.Time, error) {
	for _, layout := range []string{RFC3339Millis, time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: invalid timestamp %q", s)
}

// MarshalJSON encodes the time as an RFC 3339 string with millisecond precision.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.format() + `"`), nil
}

// UnmarshalJSON accepts RFC 3339 strings. A JSON null leaves the value unchanged.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("timeutil: expected JSON string")
	}
	parsed, err := parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalCBOR encodes the time as a tag 0 (standard date/time string) item.
func (t Time) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{Number: 0, Content: t.format()})
}

// UnmarshalCBOR accepts a tag 0 item or a bare text string.
func (t *Time) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return errors.New("timeutil: empty CBOR data")
	}
	var s string
	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err == nil {
		if tag.Number != 0 {
			return fmt.Errorf("timeutil: unexpected CBOR tag %d", tag.Number)
		}
		if err := cbor.Unmarshal(tag.Content, &s); err != nil {
			return fmt.Errorf("timeutil: decode CBOR time: %w", err)
		}
	} else if err := cbor.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timeutil: decode CBOR time: %w", err)
	}
	parsed, err := parse(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
