// Package errs defines the error taxonomy shared by the external collaborators
// and the pipeline that drives them.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks failures that may succeed on retry, such as network
	// errors, rate limiting, or overloaded upstream services.
	ErrTransient = errors.New("transient external failure")

	// ErrFatal marks failures that make an external collaborator categorically
	// unreachable, such as missing credentials or a rejected API key. A fatal
	// error aborts the whole run.
	ErrFatal = errors.New("fatal external failure")
)

type classified struct {
	kind error
	err  error
}

func (c *classified) Error() string { return c.err.Error() }

func (c *classified) Unwrap() []error { return []error{c.kind, c.err} }

// Transient wraps err so that errors.Is(err, ErrTransient) reports true.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classified{kind: ErrTransient, err: err}
}

// Fatal wraps err so that errors.Is(err, ErrFatal) reports true.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &classified{kind: ErrFatal, err: err}
}

// Fatalf formats a fatal error.
func Fatalf(format string, args ...any) error {
	return Fatal(fmt.Errorf(format, args...))
}

// IsTransient reports whether err was classified as transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsFatal reports whether err was classified as fatal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
