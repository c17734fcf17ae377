// Package hook is the collection codec for Taskwarrior's hook protocol: the
// raw bytes exchanged on a hook's stdin/stdout become task records and back.
// The transport itself (pipes, files, process wiring) belongs to the
// embedding application.
package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/maralorn/taskhook/task"
	"github.com/maralorn/taskhook/types"
)

// DecodeTasks decodes a JSON array of task objects, as produced by the
// export command and the on-launch/on-exit hook direction. Decoding is
// all-or-nothing: the first failing element aborts the call with its
// zero-based index attached, and no partial result is returned. Trailing
// whitespace after the array is tolerated; anything else is not.
func DecodeTasks(data []byte) ([]task.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var raws []json.RawMessage
	if err := dec.Decode(&raws); err != nil {
		return nil, types.NewDecodeError(types.CodeMalformedJSON, "", "", err)
	}
	// A JSON null also decodes into a nil slice; only an array is a valid
	// top-level value here.
	if raws == nil {
		return nil, types.NewDecodeError(types.CodeTypeMismatch, "", "null",
			errors.New("input must be a JSON array of task objects"))
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	tasks := make([]task.Task, len(raws))
	for i, raw := range raws {
		if err := json.Unmarshal(raw, &tasks[i]); err != nil {
			return nil, atIndex(err, i)
		}
	}
	return tasks, nil
}

// EncodeTasks encodes records as one newline-free JSON array. It cannot fail
// for records built by this library; malformed raw attribute bytes are
// rejected at insertion, not here.
func EncodeTasks(tasks []task.Task) ([]byte, error) {
	if len(tasks) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(tasks)
}

// DecodeTask decodes exactly one task object, the shape the on-add hook
// receives.
func DecodeTask(data []byte) (task.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return task.Task{}, types.NewDecodeError(types.CodeMalformedJSON, "", "", err)
	}
	if err := expectEOF(dec); err != nil {
		return task.Task{}, err
	}
	var t task.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// EncodeTask encodes one record as a single JSON object.
func EncodeTask(t task.Task) ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTaskStream decodes newline-delimited task objects, the on-modify
// hook's input of original and modified task on consecutive lines. Same
// all-or-nothing contract as DecodeTasks.
func DecodeTaskStream(r io.Reader) ([]task.Task, error) {
	dec := json.NewDecoder(r)
	var tasks []task.Task
	for i := 0; ; i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return tasks, nil
			}
			return nil, &types.DecodeError{Code: types.CodeMalformedJSON, Index: i, Err: err}
		}
		var t task.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, atIndex(err, i)
		}
		tasks = append(tasks, t)
	}
}

// expectEOF fails with trailing-data when the decoder's input continues past
// the top-level value with anything but whitespace.
func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return types.NewDecodeError(types.CodeTrailingData, "", "",
			errors.New("input continues after the top-level JSON value"))
	}
	return nil
}

func atIndex(err error, i int) error {
	var de *types.DecodeError
	if errors.As(err, &de) {
		return de.AtIndex(i)
	}
	return &types.DecodeError{Code: types.CodeMalformedJSON, Index: i, Err: err}
}
