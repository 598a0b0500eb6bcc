// Package iohelper provides helper functions for I/O operations,
// particularly for opening report inputs and outputs that may be
// standard streams, and for reading them with a size limit.
package iohelper

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
)

// ErrTooLarge is returned when an input exceeds the read limit.
var ErrTooLarge = errors.New("input exceeds size limit")

// Standard input size limits
const (
	// DefaultMaxReportSize is for cppcheck reports read from disk or stdin
	DefaultMaxReportSize int64 = defaults.MaxReportBytes

	// SmallMaxSize is for config, policy and template files (1MB)
	SmallMaxSize int64 = 1024 * 1024
)

// ReadAll reads from an io.Reader with a size limit.
// If r is nil, returns empty slice and no error.
// Unlike io.LimitReader, hitting the limit is an error: a silently
// truncated XML report would parse as malformed or, worse, as valid.
//
// Usage:
//
//	data, err := iohelper.ReadAll(f, iohelper.DefaultMaxReportSize)
func ReadAll(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxSize)
	}
	return data, nil
}

// ReadFile reads path with the given limit. "-" reads standard input.
func ReadFile(path string, maxSize int64) ([]byte, error) {
	rc, err := OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadAll(rc, maxSize)
}

// OpenInput opens path for reading. "-" selects standard input,
// which is returned with a no-op Close so callers can always defer it.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "" || path == defaults.StdStream {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// CreateOutput creates path for writing. "-" selects standard output,
// which is never closed by the returned writer.
func CreateOutput(path string) (io.WriteCloser, error) {
	return CreateOutputTo(path, os.Stdout)
}

// CreateOutputTo is CreateOutput with "-" selecting stdout instead of
// os.Stdout. A nil stdout falls back to os.Stdout.
func CreateOutputTo(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == defaults.StdStream {
		if stdout == nil {
			stdout = os.Stdout
		}
		return nopWriteCloser{stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, defaults.FilePermission)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// IsStdStream reports whether path selects a standard stream.
func IsStdStream(path string) bool {
	return path == defaults.StdStream
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
