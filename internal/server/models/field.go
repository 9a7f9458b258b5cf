package models

import (
	"bytes"
	"encoding/json"
)

// Field is a JSON value that remembers whether it was present in the
// payload and whether it was an explicit null.
//
//	{}                 -> Present=false
//	{"notes": null}    -> Present=true, Null=true
//	{"notes": "x"}     -> Present=true, Value="x"
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// Set builds a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

// Clear builds a present, explicit-null field.
func Clear[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}
