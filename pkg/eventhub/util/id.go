package util

import "github.com/google/uuid"

// NewID returns a random UUID string.
func NewID() string {
	return uuid.New().String()
}

// NewShortID returns prefix followed by the first eight hex digits of a
// random UUID, e.g. "task-1f3a9c2e".
func NewShortID(prefix string) string {
	short := uuid.New().String()[:8]
	if prefix == "" {
		return short
	}
	return prefix + "-" + short
}
