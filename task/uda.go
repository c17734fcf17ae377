package task

import (
	"bytes"
	"encoding/json"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/maralorn/taskhook/types"
)

// UDABag holds a task's user-defined attributes: any JSON key the schema does
// not know, preserved verbatim. Values stay opaque json.RawMessage; iteration
// follows insertion order. The zero value is an empty bag ready for use.
type UDABag struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

// Set stores an attribute. It fails with CollisionError when key names a
// well-known field, and with a decode error when raw is not well-formed JSON
// (rejecting it here keeps encoding infallible). The value is compacted so
// encoded output stays newline-free; re-setting an existing key overwrites
// the value in place.
func (b *UDABag) Set(key string, raw json.RawMessage) error {
	if isWellKnown(key) {
		return &types.CollisionError{Key: key}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return types.NewDecodeError(types.CodeMalformedJSON, key, string(raw), err)
	}
	if b.m == nil {
		b.m = orderedmap.New[string, json.RawMessage]()
	}
	b.m.Set(key, json.RawMessage(compact.Bytes()))
	return nil
}

// Get returns the attribute stored under key.
func (b *UDABag) Get(key string) (json.RawMessage, bool) {
	if b.m == nil {
		return nil, false
	}
	return b.m.Get(key)
}

// Len reports the number of attributes.
func (b *UDABag) Len() int {
	if b.m == nil {
		return 0
	}
	return b.m.Len()
}

// All iterates attributes in insertion order. The sequence is restartable.
func (b *UDABag) All() iter.Seq2[string, json.RawMessage] {
	return func(yield func(string, json.RawMessage) bool) {
		if b.m == nil {
			return
		}
		for pair := b.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Equal reports whether two bags hold the same keys in the same order with
// byte-identical values. go-cmp picks this up for record comparisons.
func (b UDABag) Equal(other UDABag) bool {
	if b.Len() != other.Len() {
		return false
	}
	next, stop := iter.Pull2(other.All())
	defer stop()
	for k, v := range b.All() {
		ok, ov, valid := next()
		if !valid || ok != k || !bytes.Equal(v, ov) {
			return false
		}
	}
	return true
}
