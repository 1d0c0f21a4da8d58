// Package schema defines the domain model exchanged with the broker API.
package schema

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Optional carries a JSON field that distinguishes "absent" from "empty".
// The decode boundary records whether the key was present so merge logic can
// treat a missing field as "unchanged" rather than "cleared".
type Optional[T any] struct {
	value   T
	present bool
}

// Some wraps a present value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Present reports whether the field was present.
func (o Optional[T]) Present() bool {
	return o.present
}

// OrElse returns the value when present, else fallback.
func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// UnmarshalJSON marks the field present for any value except JSON null.
// Absent keys never reach UnmarshalJSON, so the zero Optional means absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*o = Optional[T]{value: value, present: true}
	return nil
}

// MarshalJSON encodes the wrapped value, or null when absent.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
