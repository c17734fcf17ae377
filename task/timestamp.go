package task

import (
	"time"

	"github.com/maralorn/taskhook/types"
)

// timestampLayout is Taskwarrior's compact UTC format: YYYYMMDDTHHMMSSZ,
// no fractional seconds, no offset.
const timestampLayout = "20060102T150405Z"

// Timestamp is an instant in time carried in Taskwarrior's wire format.
// It embeds time.Time; the wire representation is always UTC with
// second precision.
type Timestamp struct {
	time.Time
}

// Now returns the current time truncated to second precision, ready for
// encoding without loss.
func Now() Timestamp {
	return Timestamp{time.Now().UTC().Truncate(time.Second)}
}

// At wraps an instant as a Timestamp. Sub-second precision survives in memory
// but truncates on encode.
func At(t time.Time) Timestamp {
	return Timestamp{t}
}

// ParseTimestamp decodes the compact wire format. It reports
// malformed-timestamp when the text does not have the fixed width and
// charset, and invalid-calendar-value when the shape is right but the digits
// denote an impossible date or time. It never clamps.
func ParseTimestamp(s string) (Timestamp, error) {
	if !timestampShaped(s) {
		return Timestamp{}, types.NewDecodeError(types.CodeMalformedTimestamp, "", s, nil)
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return Timestamp{}, types.NewDecodeError(types.CodeInvalidCalendarValue, "", s, err)
	}
	return Timestamp{t}, nil
}

func timestampShaped(s string) bool {
	if len(s) != len(timestampLayout) {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch i {
		case 8:
			if s[i] != 'T' {
				return false
			}
		case 15:
			if s[i] != 'Z' {
				return false
			}
		default:
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
	}
	return true
}

// String formats the instant in the wire layout, zero-padded, in UTC.
// Sub-second components truncate because the layout has no fractional field.
func (ts Timestamp) String() string {
	return ts.Time.UTC().Format(timestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. An empty string or "0" decodes
// to the zero value; Taskwarrior has emitted both for unset dates.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return types.NewDecodeError(types.CodeTypeMismatch, "", string(b), nil)
	}
	s := string(b[1 : len(b)-1])
	if s == "" || s == "0" {
		ts.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// Equal compares two timestamps as instants.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.Time.Equal(other.Time)
}
