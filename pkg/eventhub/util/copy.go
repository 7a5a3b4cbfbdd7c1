package util

import (
	"encoding/json"
	"fmt"
)

// Cloner is implemented by values that know how to copy themselves.
type Cloner[T any] interface {
	Clone() T
}

// DeepCopy returns an independent copy of v.
//
// Values implementing Cloner[T] are copied with Clone. Everything else is
// round-tripped through JSON, so unexported fields, channels, and functions
// are not carried over.
func DeepCopy[T any](v T) (T, error) {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone(), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("deep copy: marshal: %w", err)
	}

	var clone T
	if err := json.Unmarshal(data, &clone); err != nil {
		var zero T
		return zero, fmt.Errorf("deep copy: unmarshal: %w", err)
	}
	return clone, nil
}
