package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEvent is returned when the evento discriminator is anything
// other than EventNewAppointment.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// ErrDuplicateRow is returned by dedup-aware stores when an identical row was
// already appended inside the dedup window.
var ErrDuplicateRow = errors.New("duplicate row delivery")

// MissingFieldError reports the first required dotted path that resolved
// empty under strict validation.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Path)
}

// MappingError reports an unexpected failure while resolving a column. The
// mapper converts internal panics into this type so nothing escapes the
// mapping boundary.
type MappingError struct {
	Column string
	Cause  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping column %q: %v", e.Column, e.Cause)
}

func (e *MappingError) Unwrap() error {
	return e.Cause
}
