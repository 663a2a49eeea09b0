package domain

import (
	"errors"
	"fmt"
)

// ErrWindowOrder is returned when a window is unset or since >= until.
var ErrWindowOrder = errors.New("window since must be before until")

// ErrInvalidInstant is returned for a timestamp not in InstantLayout.
var ErrInvalidInstant = errors.New("invalid instant")

// MalformedEventError means no canonical instant could be derived from a raw
// timeline event. It must abort update classification for the issue.
type MalformedEventError struct {
	Kind   string
	Reason string
}

func (e *MalformedEventError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "<none>"
	}
	return fmt.Sprintf("malformed timeline event (kind %s): %s", kind, e.Reason)
}
