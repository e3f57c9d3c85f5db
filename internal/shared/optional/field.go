// Package optional models partial-update fields where "not provided" and
// "explicitly cleared" are different requests.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value: absent (Set=false), explicit null (Set=true,
// Null=true) or a concrete Value.
//
// When decoded from JSON an absent key leaves the zero Field, which is absent.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Of[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Present reports whether the field was provided with a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// Ptr returns nil for absent or null fields.
func (f Field[T]) Ptr() *T {
	if !f.Present() {
		return nil
	}
	value := f.Value
	return &value
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
