package apiserver

import (
	"strings"

	"github.com/google/uuid"
)

// newTaskID generates the 12-char URL-safe task identifier spec.md §3
// requires, grounded on the teacher's own uuid.New().String()-with-dashes-
// stripped pattern (internal/services/plex/token_manager.go): a uuid's hex
// digits are already URL-safe, so truncating to 12 keeps the property while
// matching the spec's shorter identifier.
func newTaskID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// newTraceID generates the 16-char request trace id spec.md §6's logging
// surface requires, using the same construction as newTaskID at a longer
// length.
func newTraceID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
