// Package task models Taskwarrior task records and their JSON dialect:
// compact UTC timestamps, closed status and priority sets, UUID
// cross-references, and verbatim preservation of user-defined attributes.
package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/maralorn/taskhook/types"
)

// wellKnownOrder lists every field Taskwarrior's exporter owns, in the order
// this package emits them. Any other key belongs to the UDA bag.
var wellKnownOrder = []string{
	"id", "uuid", "status", "description", "entry", "modified",
	"start", "end", "due", "until", "scheduled", "wait",
	"recur", "mask", "imask", "parent",
	"priority", "project", "tags", "depends", "urgency", "annotations",
}

var wellKnownSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(wellKnownOrder))
	for _, k := range wellKnownOrder {
		s[k] = struct{}{}
	}
	return s
}()

func isWellKnown(key string) bool {
	_, ok := wellKnownSet[key]
	return ok
}

// WellKnownFields returns the field names owned by the schema, in emit order.
func WellKnownFields() []string {
	out := make([]string, len(wellKnownOrder))
	copy(out, wellKnownOrder)
	return out
}

// Task is one task record as understood by the external tool. Optional fields
// are pointers (or zero values for free text) and are omitted from JSON when
// absent, never emitted as null. A record decoded from the tool is complete
// and validated; records assembled locally go through Builder.
type Task struct {
	// ID is the transient working-set number. Export-only: the tool
	// renumbers at will, so it never identifies a task.
	ID *int `json:"id,omitempty"`
	// UUID is the permanent identity. Nil on locally built records that the
	// tool has not accepted yet.
	UUID        *uuid.UUID `json:"uuid,omitempty"`
	Status      Status     `json:"status" validate:"required,oneof=pending completed deleted waiting recurring"`
	Description string     `json:"description" validate:"required"`
	Entry       Timestamp  `json:"entry" validate:"required"`
	Modified    *Timestamp `json:"modified,omitempty"`
	Start       *Timestamp `json:"start,omitempty"`
	End         *Timestamp `json:"end,omitempty"`
	Due         *Timestamp `json:"due,omitempty"`
	Until       *Timestamp `json:"until,omitempty"`
	Scheduled   *Timestamp `json:"scheduled,omitempty"`
	Wait        *Timestamp `json:"wait,omitempty"`
	// Recur is the recurrence period (e.g. "weekly"); present on recurring
	// templates only.
	Recur string `json:"recur,omitempty"`
	// Mask and IMask belong to the tool's recurrence bookkeeping: the
	// template's instance mask and the instance's index into it.
	Mask  string `json:"mask,omitempty"`
	IMask *int   `json:"imask,omitempty"`
	// Parent points a recurrence instance back at its template.
	Parent      *uuid.UUID   `json:"parent,omitempty"`
	Priority    Priority     `json:"priority,omitempty"`
	Project     string       `json:"project,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Depends     []uuid.UUID  `json:"depends,omitempty"`
	Urgency     *float64     `json:"urgency,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	// UDA carries user-defined attributes, re-emitted unchanged.
	UDA UDABag `json:"-" validate:"-"`
}

// UnmarshalJSON decodes one task object. It walks the object in document
// order so user-defined attributes land in the bag in their original order,
// and reports every failure as a DecodeError naming the offending field.
func (t *Task) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return types.NewDecodeError(types.CodeMalformedJSON, "", "", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return types.NewDecodeError(types.CodeTypeMismatch, "", fmt.Sprint(tok),
			errors.New("task must be a JSON object"))
	}
	var fresh Task
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return types.NewDecodeError(types.CodeMalformedJSON, "", "", err)
		}
		key := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return types.NewDecodeError(types.CodeMalformedJSON, key, "", err)
		}
		if err := fresh.setField(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return types.NewDecodeError(types.CodeMalformedJSON, "", "", err)
	}
	*t = fresh
	return nil
}

func (t *Task) setField(key string, raw json.RawMessage) error {
	switch key {
	case "id":
		return decodeInto(key, raw, &t.ID)
	case "uuid":
		return decodeUUIDPtr(key, raw, &t.UUID)
	case "parent":
		return decodeUUIDPtr(key, raw, &t.Parent)
	case "status":
		return fieldError(key, json.Unmarshal(raw, &t.Status))
	case "description":
		return decodeInto(key, raw, &t.Description)
	case "project":
		return decodeInto(key, raw, &t.Project)
	case "recur":
		return decodeInto(key, raw, &t.Recur)
	case "mask":
		return decodeInto(key, raw, &t.Mask)
	case "imask":
		return decodeInto(key, raw, &t.IMask)
	case "urgency":
		return decodeInto(key, raw, &t.Urgency)
	case "entry":
		return fieldError(key, json.Unmarshal(raw, &t.Entry))
	case "modified":
		return decodeTimestampPtr(key, raw, &t.Modified)
	case "start":
		return decodeTimestampPtr(key, raw, &t.Start)
	case "end":
		return decodeTimestampPtr(key, raw, &t.End)
	case "due":
		return decodeTimestampPtr(key, raw, &t.Due)
	case "until":
		return decodeTimestampPtr(key, raw, &t.Until)
	case "scheduled":
		return decodeTimestampPtr(key, raw, &t.Scheduled)
	case "wait":
		return decodeTimestampPtr(key, raw, &t.Wait)
	case "priority":
		return fieldError(key, json.Unmarshal(raw, &t.Priority))
	case "tags":
		return decodeInto(key, raw, &t.Tags)
	case "annotations":
		return fieldError(key, json.Unmarshal(raw, &t.Annotations))
	case "depends":
		return t.decodeDepends(raw)
	default:
		return t.UDA.Set(key, raw)
	}
}

// decodeDepends accepts both wire forms: the 2.6+ JSON array of UUID strings
// and the legacy single comma-separated string.
func (t *Task) decodeDepends(raw json.RawMessage) error {
	var parts []string
	if len(raw) > 0 && raw[0] == '"' {
		var joined string
		if err := json.Unmarshal(raw, &joined); err != nil {
			return types.NewDecodeError(types.CodeTypeMismatch, "depends", string(raw), err)
		}
		if joined != "" {
			parts = strings.Split(joined, ",")
		}
	} else if err := json.Unmarshal(raw, &parts); err != nil {
		return types.NewDecodeError(types.CodeTypeMismatch, "depends", string(raw), err)
	}
	deps := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			return types.NewDecodeError(types.CodeInvalidUUID, "depends", p, err)
		}
		deps = append(deps, id)
	}
	if len(deps) > 0 {
		t.Depends = deps
	}
	return nil
}

func decodeInto[T any](key string, raw json.RawMessage, dst *T) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return types.NewDecodeError(types.CodeTypeMismatch, key, string(raw), err)
	}
	return nil
}

func decodeUUIDPtr(key string, raw json.RawMessage, dst **uuid.UUID) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return types.NewDecodeError(types.CodeTypeMismatch, key, string(raw), err)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return types.NewDecodeError(types.CodeInvalidUUID, key, s, err)
	}
	*dst = &id
	return nil
}

func decodeTimestampPtr(key string, raw json.RawMessage, dst **Timestamp) error {
	var ts Timestamp
	if err := json.Unmarshal(raw, &ts); err != nil {
		return fieldError(key, err)
	}
	// ""/"0" decode to the zero value, the tool's spellings for an unset
	// date. The field is absent, not set to a year-1 instant.
	if ts.IsZero() {
		*dst = nil
		return nil
	}
	*dst = &ts
	return nil
}

// fieldError attaches the JSON key to a decode error coming out of a field
// type's own unmarshaler.
func fieldError(key string, err error) error {
	if err == nil {
		return nil
	}
	var de *types.DecodeError
	if errors.As(err, &de) {
		if de.Field == "" {
			de.Field = key
		}
		return de
	}
	return types.NewDecodeError(types.CodeTypeMismatch, key, "", err)
}

// MarshalJSON encodes the record as one flat object: well-known fields in the
// exporter's order, absent optionals omitted, then user-defined attributes in
// bag order at the same nesting level.
func (t Task) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	w := fieldWriter{buf: &buf}
	w.optInt("id", t.ID)
	w.optUUID("uuid", t.UUID)
	w.value("status", t.Status)
	w.str("description", t.Description)
	w.value("entry", t.Entry)
	w.optTime("modified", t.Modified)
	w.optTime("start", t.Start)
	w.optTime("end", t.End)
	w.optTime("due", t.Due)
	w.optTime("until", t.Until)
	w.optTime("scheduled", t.Scheduled)
	w.optTime("wait", t.Wait)
	w.optStr("recur", t.Recur)
	w.optStr("mask", t.Mask)
	w.optInt("imask", t.IMask)
	w.optUUID("parent", t.Parent)
	if t.Priority != PriorityNone {
		w.value("priority", t.Priority)
	}
	w.optStr("project", t.Project)
	if len(t.Tags) > 0 {
		w.value("tags", t.Tags)
	}
	if len(t.Depends) > 0 {
		deps := make([]string, len(t.Depends))
		for i, d := range t.Depends {
			deps[i] = d.String()
		}
		w.value("depends", deps)
	}
	if t.Urgency != nil {
		w.value("urgency", *t.Urgency)
	}
	if len(t.Annotations) > 0 {
		w.value("annotations", t.Annotations)
	}
	for key, raw := range t.UDA.All() {
		w.raw(key, raw)
	}
	if w.err != nil {
		return nil, w.err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type fieldWriter struct {
	buf   *bytes.Buffer
	wrote bool
	err   error
}

func (w *fieldWriter) key(name string) {
	if w.wrote {
		w.buf.WriteByte(',')
	}
	w.wrote = true
	w.buf.WriteByte('"')
	w.buf.WriteString(name)
	w.buf.WriteString(`":`)
}

func (w *fieldWriter) value(name string, v any) {
	if w.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.key(name)
	w.buf.Write(b)
}

func (w *fieldWriter) raw(name string, raw json.RawMessage) {
	if w.err != nil {
		return
	}
	w.key(name)
	w.buf.Write(raw)
}

func (w *fieldWriter) str(name, s string) { w.value(name, s) }

func (w *fieldWriter) optStr(name, s string) {
	if s != "" {
		w.value(name, s)
	}
}

func (w *fieldWriter) optInt(name string, v *int) {
	if v != nil {
		w.value(name, *v)
	}
}

func (w *fieldWriter) optUUID(name string, v *uuid.UUID) {
	if v != nil {
		w.value(name, v.String())
	}
}

func (w *fieldWriter) optTime(name string, ts *Timestamp) {
	if ts != nil {
		w.value(name, *ts)
	}
}
