package backup

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument indicates a backup document that cannot be restored.
var ErrMalformedDocument = errors.New("malformed backup document")

// DecodeError locates the first problem in a backup document. Path uses
// JSON notation, e.g. events[3].timestamp.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at %s: %s", ErrMalformedDocument, e.Path, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformedDocument
}

func decodeErr(path, format string, args ...any) *DecodeError {
	return &DecodeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
