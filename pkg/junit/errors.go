package junit

import (
	"errors"
	"fmt"
)

// ErrWrite matches every *WriteError.
var ErrWrite = errors.New("junit: write failed")

// WriteError reports a failure of the output sink. The document itself is
// always encodable; only the destination can fail.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v", ErrWrite, e.Err)
}

// Unwrap returns the sink error.
func (e *WriteError) Unwrap() error { return e.Err }

// Is reports whether target is ErrWrite.
func (e *WriteError) Is(target error) bool { return target == ErrWrite }
