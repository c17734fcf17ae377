// Package types defines the error types shared by the taskhook packages.
package types

import "fmt"

// Decode error codes. The code identifies what went wrong; Field and Index
// locate the offending input.
const (
	CodeMalformedJSON        = "malformed-json"
	CodeMalformedTimestamp   = "malformed-timestamp"
	CodeInvalidCalendarValue = "invalid-calendar-value"
	CodeUnknownStatus        = "unknown-status"
	CodeUnknownPriority      = "unknown-priority"
	CodeTypeMismatch         = "type-mismatch"
	CodeInvalidUUID          = "invalid-uuid"
	CodeTrailingData         = "trailing-data"
)

// Validation error codes, in the order the builder checks them.
const (
	CodeMissingField        = "missing-field"
	CodeStatusFieldMismatch = "status-field-mismatch"
	CodeAttributeCollision  = "attribute-collision"
	CodeBuilderSpent        = "builder-spent"
)

// Cache error codes.
const (
	CodeDirtyCache  = "dirty-cache"
	CodeCacheMiss   = "cache-miss"
	CodeMissingUUID = "missing-uuid"
)

// DecodeError reports a failure to decode task JSON. Field names the JSON key
// being decoded when one is known; Index is the zero-based position in the
// enclosing array, or -1 outside array context.
type DecodeError struct {
	Code  string
	Field string
	Index int
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := e.Code
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: task at index %d", msg, e.Index)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %q", msg, e.Field)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NewDecodeError creates a DecodeError outside array context.
func NewDecodeError(code, field, value string, err error) *DecodeError {
	return &DecodeError{Code: code, Field: field, Index: -1, Value: value, Err: err}
}

// AtIndex returns a copy of the error located at the given array index.
func (e *DecodeError) AtIndex(i int) *DecodeError {
	c := *e
	c.Index = i
	return &c
}

// ValidationError reports a record that violates a construction invariant.
// Raised only by the builder.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: field %q: %s", e.Code, e.Field, e.Message)
}

// CollisionError reports an attempt to store a user-defined attribute under a
// well-known field name.
type CollisionError struct {
	Key string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("attribute key %q collides with a well-known field", e.Key)
}

// CacheError reports a cache state violation: loading over unsaved changes or
// updating a task that is not cached.
type CacheError struct {
	Code    string
	Message string
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
