package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is a relational field the backend sends either as a bare id or as
// the populated document. Callers read it through ID and Value instead of
// probing the JSON shape themselves.
type Ref[T any] struct {
	id    string
	value *T
}

// IDRef returns an unpopulated reference
func IDRef[T any](id string) Ref[T] {
	return Ref[T]{id: id}
}

// PopulatedRef returns a reference carrying the full value
func PopulatedRef[T any](id string, v T) Ref[T] {
	return Ref[T]{id: id, value: &v}
}

// ID returns the referenced id in both forms
func (r Ref[T]) ID() string {
	return r.id
}

// Value returns the populated document, if the backend sent one
func (r Ref[T]) Value() (T, bool) {
	if r.value == nil {
		var zero T
		return zero, false
	}
	return *r.value, true
}

// IsPopulated reports whether the full document is present
func (r Ref[T]) IsPopulated() bool {
	return r.value != nil
}

// IsZero reports whether the reference is empty
func (r Ref[T]) IsZero() bool {
	return r.id == "" && r.value == nil
}

// UnmarshalJSON accepts a string id, null, or an object with id or _id.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*r = Ref[T]{}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = IDRef[T](id)
		return nil
	case data[0] == '{':
		var ids struct {
			ID      string `json:"id"`
			MongoID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		id := ids.ID
		if id == "" {
			id = ids.MongoID
		}
		*r = PopulatedRef(id, v)
		return nil
	default:
		return fmt.Errorf("reference must be a string id or an object, got %s", data)
	}
}

// MarshalJSON writes the populated value when present, else the id.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.value != nil {
		return json.Marshal(r.value)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}
