// Package apperr defines the error taxonomy shared by the core packages.
// Callers classify errors with errors.Is against the sentinels below.
package apperr

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnavailable    = errors.New("collaborator unavailable")
)

func NotFound(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func InvalidRequest(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidRequest, format, args...)
}

// Unavailable marks err as a failure of an external collaborator such as a
// storage backend. A nil err yields nil.
func Unavailable(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &unavailableError{cause: errors.Wrapf(err, format, args...)}
}

// TimedOut reports a collaborator call that ran past its deadline as
// Unavailable. Any other err, including nil, is returned unchanged.
func TimedOut(err error, format string, args ...interface{}) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrUnavailable) {
		return Unavailable(err, format, args...)
	}
	return err
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string { return e.cause.Error() }

func (e *unavailableError) Unwrap() error { return e.cause }

func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

// Message returns the outermost message of err without the sentinel suffix,
// suitable for an HTTP error body.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return trimSentinel(err.Error(), ErrNotFound)
	case errors.Is(err, ErrInvalidRequest):
		return trimSentinel(err.Error(), ErrInvalidRequest)
	}
	return err.Error()
}

func trimSentinel(msg string, sentinel error) string {
	suffix := ": " + sentinel.Error()
	if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
		return msg[:len(msg)-len(suffix)]
	}
	return msg
}
