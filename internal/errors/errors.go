package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error leaving the pipeline matches exactly one of these with errors.Is.
var (
	// ErrIO indicates a filesystem read, write or permission failure.
	ErrIO = errors.New("i/o error")

	// ErrFormat indicates the input is not a well-formed container.
	ErrFormat = errors.New("invalid file format")

	// ErrAuthentication indicates the AEAD tag did not verify.
	// It deliberately does not say whether the passphrase or the data is at fault.
	ErrAuthentication = errors.New("wrong passphrase or corrupted data")

	// ErrDerivation indicates the key derivation function rejected its parameters.
	ErrDerivation = errors.New("key derivation failed")

	// ErrPathSafety indicates an archive entry escapes its destination,
	// or the source path is missing or not a directory.
	ErrPathSafety = errors.New("unsafe or invalid path")
)

// IOError records a failed filesystem operation together with the path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// IO wraps err as an IOError. It returns nil if err is nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}

	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is makes every IOError match ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// Format wraps a detail message as a format error.
func Format(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// PathSafety wraps a detail message about path as a path safety error.
func PathSafety(path, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrPathSafety, path, reason)
}

// Kind returns a short name for the kind of err, or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrDerivation):
		return "derivation"
	case errors.Is(err, ErrPathSafety):
		return "path-safety"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}

// Is forwards to the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library so callers need a single errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New forwards to the standard library so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}
