package finding

import "errors"

// Sentinel errors for severity handling.
// Callers should use errors.Is() to check for these.
var (
	// ErrUnknownSeverity indicates a severity string cppcheck never emits.
	ErrUnknownSeverity = errors.New("finding: unknown severity")
)
