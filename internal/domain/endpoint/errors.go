package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/okian/bnet/internal/domain/namespace"
)

// Sentinel error kinds. Typed errors below match these via errors.Is.
var (
	// ErrInvalidRequest reports caller input that cannot form a request
	// (wrong parameter count, empty parameter, malformed template).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTransport reports a network level failure: connection, timeout, cancellation.
	ErrTransport = errors.New("transport error")

	// ErrDecode reports a payload that does not map to the expected DTO.
	ErrDecode = errors.New("decode error")

	// ErrStatus reports a non-success HTTP status from the remote API.
	ErrStatus = errors.New("unexpected status")
)

// TransportError wraps a failure to obtain a response body.
type TransportError struct {
	// Path is the resource path that was requested.
	Path string
	// Namespace is the namespace the request was scoped to.
	Namespace namespace.Namespace
	// Cause is the underlying network or context error.
	Cause error
}

func (e *TransportError) Error() string {
	msg := "transport error"
	if e.Path != "" {
		msg += fmt.Sprintf(" for %s (%s)", e.Path, e.Namespace)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Timeout reports whether the failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Cause, &ne) && ne.Timeout()
}

// DecodeError reports that a payload could not be mapped onto a DTO.
type DecodeError struct {
	// Target names the DTO type being decoded.
	Target string
	// Field is the wire name of the offending field, if known.
	Field string
	// Cause is the JSON or validation error.
	Cause error
}

func (e *DecodeError) Error() string {
	msg := "decode error"
	if e.Target != "" {
		msg += " into " + e.Target
	}
	if e.Field != "" {
		msg += " at field " + e.Field
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// StatusError is returned by transports when the remote API answers with a
// non-success status. Code and Detail come from the Blizzard error body when
// one is present.
type StatusError struct {
	Path       string
	Namespace  namespace.Namespace
	StatusCode int
	Code       string
	Detail     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("unexpected status %d for %s (%s)", e.StatusCode, e.Path, e.Namespace)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// NotFound reports a 404 from the remote API.
func (e *StatusError) NotFound() bool { return e.StatusCode == 404 }
