package task

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/maralorn/taskhook/types"
)

func entryTime() Timestamp {
	return At(time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC))
}

func TestBuilderBuildsValidTask(t *testing.T) {
	endTime := At(time.Date(2023, 1, 5, 12, 0, 0, 0, time.UTC))
	got, err := NewBuilder().
		Description("write report").
		Status(StatusCompleted).
		Entry(entryTime()).
		End(endTime).
		Priority(PriorityHigh).
		Project("work").
		Tags("next", "office").
		Annotate(endTime, "sent to review").
		UDA("estimate", json.RawMessage(`"2h"`)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got.UUID != nil {
		t.Error("Build must not assign a uuid; that is the tool's job on import")
	}
	if got.Description != "write report" || got.Status != StatusCompleted {
		t.Errorf("unexpected record: %+v", got)
	}
	if v, ok := got.UDA.Get("estimate"); !ok || string(v) != `"2h"` {
		t.Errorf("estimate uda = %s, %v", v, ok)
	}
}

func TestBuilderValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *Builder
		wantCode  string
		wantField string
	}{
		{
			name: "missing description",
			build: func() *Builder {
				return NewBuilder().Status(StatusPending).Entry(entryTime())
			},
			wantCode:  types.CodeMissingField,
			wantField: "description",
		},
		{
			name: "missing status",
			build: func() *Builder {
				return NewBuilder().Description("x").Entry(entryTime())
			},
			wantCode:  types.CodeMissingField,
			wantField: "status",
		},
		{
			name: "missing entry",
			build: func() *Builder {
				return NewBuilder().Description("x").Status(StatusPending)
			},
			wantCode:  types.CodeMissingField,
			wantField: "entry",
		},
		{
			name: "completed without end",
			build: func() *Builder {
				return NewBuilder().Description("x").Status(StatusCompleted).Entry(entryTime())
			},
			wantCode:  types.CodeStatusFieldMismatch,
			wantField: "end",
		},
		{
			name: "pending with end",
			build: func() *Builder {
				return NewBuilder().Description("x").Status(StatusPending).Entry(entryTime()).End(entryTime())
			},
			wantCode:  types.CodeStatusFieldMismatch,
			wantField: "end",
		},
		{
			name: "waiting without wait",
			build: func() *Builder {
				return NewBuilder().Description("x").Status(StatusWaiting).Entry(entryTime())
			},
			wantCode:  types.CodeStatusFieldMismatch,
			wantField: "wait",
		},
		{
			name: "uda collides with well-known field",
			build: func() *Builder {
				return NewBuilder().Description("x").Status(StatusPending).Entry(entryTime()).
					UDA("project", json.RawMessage(`"home"`))
			},
			wantCode:  types.CodeAttributeCollision,
			wantField: "project",
		},
		{
			// Priority order: a record missing its description AND carrying an
			// illegal end AND a colliding attribute reports the missing field.
			name: "missing field wins over legality and collision",
			build: func() *Builder {
				return NewBuilder().Status(StatusPending).Entry(entryTime()).End(entryTime()).
					UDA("project", json.RawMessage(`"home"`))
			},
			wantCode:  types.CodeMissingField,
			wantField: "description",
		},
		{
			name: "legality wins over collision",
			build: func() *Builder {
				return NewBuilder().Description("x").Status(StatusPending).Entry(entryTime()).End(entryTime()).
					UDA("project", json.RawMessage(`"home"`))
			},
			wantCode:  types.CodeStatusFieldMismatch,
			wantField: "end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			var ve *types.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Build error = %v, want ValidationError", err)
			}
			if ve.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", ve.Code, tt.wantCode)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestBuilderErrorsAreDeterministic(t *testing.T) {
	build := func() error {
		_, err := NewBuilder().Status(StatusCompleted).UDA("status", json.RawMessage(`1`)).Build()
		return err
	}
	first := build().Error()
	for i := 0; i < 5; i++ {
		if got := build().Error(); got != first {
			t.Fatalf("run %d reported %q, first run reported %q", i, got, first)
		}
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := NewBuilder().Description("x").Status(StatusPending).Entry(entryTime())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	_, err := b.Build()
	var ve *types.ValidationError
	if !errors.As(err, &ve) || ve.Code != types.CodeBuilderSpent {
		t.Errorf("second Build = %v, want %s", err, types.CodeBuilderSpent)
	}

	// A failed build spends the builder too.
	failed := NewBuilder()
	if _, err := failed.Build(); err == nil {
		t.Fatal("empty builder should not build")
	}
	if _, err := failed.Build(); err == nil {
		t.Fatal("spent builder should not build")
	} else if !errors.As(err, &ve) || ve.Code != types.CodeBuilderSpent {
		t.Errorf("error = %v, want %s", err, types.CodeBuilderSpent)
	}
}

func TestBuilderCarriesUUIDForModify(t *testing.T) {
	id := mustUUID(t, "3f6a1b2c-7c4d-4b6e-9e2f-1a5b8c3d9e0f")
	got, err := NewBuilder().
		UUID(id).
		Description("x").
		Status(StatusPending).
		Entry(entryTime()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got.UUID == nil || *got.UUID != id {
		t.Errorf("uuid = %v, want %s carried through unchanged", got.UUID, id)
	}
}
