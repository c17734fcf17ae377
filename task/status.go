package task

import (
	"fmt"

	"github.com/maralorn/taskhook/types"
)

// Status is the lifecycle state of a task. The set is closed: Taskwarrior
// defines exactly these five and an unrecognized string is schema drift, not
// something to coerce.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
	StatusWaiting   Status = "waiting"
	StatusRecurring Status = "recurring"
)

// AllStatuses returns the closed status set in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusCompleted, StatusDeleted, StatusWaiting, StatusRecurring}
}

// ParseStatus decodes a wire status string. Unknown text fails with
// unknown-status rather than defaulting.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusDeleted, StatusWaiting, StatusRecurring:
		return Status(s), nil
	}
	return "", types.NewDecodeError(types.CodeUnknownStatus, "status", s, nil)
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + string(s) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return types.NewDecodeError(types.CodeTypeMismatch, "status", string(b), nil)
	}
	parsed, err := ParseStatus(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// checkFieldLegality enforces which optional fields each status permits or
// requires. The switch is exhaustive over the closed set so that adding a
// status without a rule fails here.
func checkFieldLegality(t *Task) error {
	switch t.Status {
	case StatusPending:
		return requireAbsent(t.Status, endField(t))
	case StatusWaiting:
		if t.Wait == nil {
			return statusNeeds(t.Status, "wait")
		}
		return requireAbsent(t.Status, endField(t))
	case StatusCompleted, StatusDeleted:
		if t.End == nil {
			return statusNeeds(t.Status, "end")
		}
		return nil
	case StatusRecurring:
		if t.Recur == "" {
			return statusNeeds(t.Status, "recur")
		}
		return requireAbsent(t.Status, endField(t), parentField(t))
	default:
		return &types.ValidationError{
			Code:    types.CodeStatusFieldMismatch,
			Field:   "status",
			Message: fmt.Sprintf("no legality rule for status %q", t.Status),
		}
	}
}

// presentField names an optional field and whether the task populates it.
type presentField struct {
	name    string
	present bool
}

func endField(t *Task) presentField { return presentField{"end", t.End != nil} }

func parentField(t *Task) presentField { return presentField{"parent", t.Parent != nil} }

func requireAbsent(s Status, fields ...presentField) error {
	for _, f := range fields {
		if f.present {
			return &types.ValidationError{
				Code:    types.CodeStatusFieldMismatch,
				Field:   f.name,
				Message: fmt.Sprintf("status %q forbids field %q", s, f.name),
			}
		}
	}
	return nil
}

func statusNeeds(s Status, field string) error {
	return &types.ValidationError{
		Code:    types.CodeStatusFieldMismatch,
		Field:   field,
		Message: fmt.Sprintf("status %q requires field %q", s, field),
	}
}
