package task

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/maralorn/taskhook/types"
)

// validate runs the builder's required-field pass. Field checks run in struct
// declaration order, which keeps the first reported violation stable across
// runs.
var validate = validator.New()

// Builder assembles a Task incrementally. Setters store values and never
// fail; Build validates everything in one pass and freezes the record. A
// builder is single-use: after Build returns, successfully or not, the
// builder is spent.
//
// Build never assigns a UUID; that is the external tool's prerogative on
// import. UUID exists for the modify path, where an existing identity is
// carried through unchanged.
type Builder struct {
	task  Task
	udas  []udaEntry
	spent bool
}

type udaEntry struct {
	key string
	raw json.RawMessage
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Description(d string) *Builder { b.task.Description = d; return b }

func (b *Builder) Status(s Status) *Builder { b.task.Status = s; return b }

func (b *Builder) Entry(ts Timestamp) *Builder { b.task.Entry = ts; return b }

func (b *Builder) Priority(p Priority) *Builder { b.task.Priority = p; return b }

func (b *Builder) Project(p string) *Builder { b.task.Project = p; return b }

func (b *Builder) Recur(r string) *Builder { b.task.Recur = r; return b }

func (b *Builder) UUID(id uuid.UUID) *Builder { b.task.UUID = &id; return b }

func (b *Builder) Parent(id uuid.UUID) *Builder { b.task.Parent = &id; return b }

func (b *Builder) Modified(ts Timestamp) *Builder { b.task.Modified = &ts; return b }

func (b *Builder) Start(ts Timestamp) *Builder { b.task.Start = &ts; return b }

func (b *Builder) End(ts Timestamp) *Builder { b.task.End = &ts; return b }

func (b *Builder) Due(ts Timestamp) *Builder { b.task.Due = &ts; return b }

func (b *Builder) Until(ts Timestamp) *Builder { b.task.Until = &ts; return b }

func (b *Builder) Scheduled(ts Timestamp) *Builder { b.task.Scheduled = &ts; return b }

func (b *Builder) Wait(ts Timestamp) *Builder { b.task.Wait = &ts; return b }

// Tags adds tags; repeated calls accumulate.
func (b *Builder) Tags(tags ...string) *Builder {
	b.task.Tags = append(b.task.Tags, tags...)
	return b
}

// Depends adds dependency references; dangling references are not an error at
// this layer.
func (b *Builder) Depends(ids ...uuid.UUID) *Builder {
	b.task.Depends = append(b.task.Depends, ids...)
	return b
}

// Annotate appends an annotation; call order becomes annotation order.
func (b *Builder) Annotate(entry Timestamp, description string) *Builder {
	b.task.Annotations = append(b.task.Annotations, Annotation{Entry: entry, Description: description})
	return b
}

// UDA stages a user-defined attribute. Collisions with well-known fields are
// reported by Build, keeping setters infallible.
func (b *Builder) UDA(key string, raw json.RawMessage) *Builder {
	b.udas = append(b.udas, udaEntry{key: key, raw: raw})
	return b
}

// Build validates the staged record and returns it. Violations are reported
// in a fixed priority: missing required field, then status/field legality,
// then attribute-key collision. The first hit wins, so messages are
// reproducible. The builder is spent afterwards either way.
func (b *Builder) Build() (*Task, error) {
	if b.spent {
		return nil, &types.ValidationError{
			Code:    types.CodeBuilderSpent,
			Message: "builder already consumed; start a fresh one",
		}
	}
	b.spent = true

	t := b.task
	if err := validate.Struct(t); err != nil {
		return nil, translateValidatorError(err)
	}
	if err := checkFieldLegality(&t); err != nil {
		return nil, err
	}
	for _, e := range b.udas {
		if err := t.UDA.Set(e.key, e.raw); err != nil {
			var collision *types.CollisionError
			if errors.As(err, &collision) {
				return nil, &types.ValidationError{
					Code:    types.CodeAttributeCollision,
					Field:   collision.Key,
					Message: collision.Error(),
				}
			}
			return nil, err
		}
	}
	return &t, nil
}

func translateValidatorError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &types.ValidationError{Code: types.CodeMissingField, Message: err.Error()}
	}
	first := verrs[0]
	field := strings.ToLower(first.StructField())
	if first.Tag() == "required" {
		return &types.ValidationError{
			Code:    types.CodeMissingField,
			Field:   field,
			Message: "required field is missing",
		}
	}
	return &types.ValidationError{
		Code:    types.CodeStatusFieldMismatch,
		Field:   field,
		Message: "value fails rule " + first.Tag(),
	}
}
