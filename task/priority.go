package task

import "github.com/maralorn/taskhook/types"

// Priority is the task priority. The zero value means no priority; wire
// values are Taskwarrior's single letters.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "L"
	PriorityMedium Priority = "M"
	PriorityHigh   Priority = "H"
)

// Order gives the ordinal rank: none < low < medium < high.
func (p Priority) Order() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// ParsePriority decodes a wire priority letter.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return PriorityNone, types.NewDecodeError(types.CodeUnknownPriority, "priority", s, nil)
}

// MarshalJSON implements json.Marshaler.
func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + string(p) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Priorities are strings on the
// wire; a number here is a type mismatch, not a rank.
func (p *Priority) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return types.NewDecodeError(types.CodeTypeMismatch, "priority", string(b), nil)
	}
	parsed, err := ParsePriority(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
