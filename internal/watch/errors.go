package watch

import "errors"

// ErrMissingRequiredField matches any *MissingRequiredFieldError via errors.Is.
var ErrMissingRequiredField = errors.New("missing required field")

// MissingRequiredFieldError occurs when a watch source is serialized before
// a required part has been set. Configure the builder and call again.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return "failed to build watch source: no " + e.Field + " defined"
}

func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// SerializationError occurs when a component body or the byte encoding of
// the document fails. Err is the original cause.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	return "failed to " + e.Op + " watch source: " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
