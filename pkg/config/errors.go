package config

import "errors"

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidConfig indicates the configuration is syntactically
	// or semantically invalid (bad YAML, unknown keys, bad enum values).
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingRequired indicates the input or output path was not
	// provided by flag, positional argument or config file.
	ErrMissingRequired = errors.New("config: missing required field")
)
