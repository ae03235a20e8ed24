package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for protocol and HTTP handling.
type Kind string

const (
	KindInvalidCredential Kind = "invalid_credential"
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInternal          Kind = "internal"
)

// Error is a typed application error with a stable kind and a
// client-safe message. Internal details stay in the wrapped cause.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Fatal reports whether the error must terminate the connection
// when it occurs on the websocket path. Only credential failures
// during the authenticate handshake are fatal.
func (e *Error) Fatal() bool {
	return e.Kind == KindInvalidCredential
}

func newError(kind Kind, statusCode int, message string) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Message: message}
}

func InvalidCredential(message string) *Error {
	return newError(KindInvalidCredential, 401, message)
}

func Unauthenticated(message string) *Error {
	return newError(KindUnauthenticated, 401, message)
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, 403, message)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, 404, message)
}

func InvalidInput(message string) *Error {
	return newError(KindInvalidInput, 400, message)
}

// Internal wraps an unexpected failure. The cause is kept for logs,
// the message sent to clients stays generic.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, StatusCode: 500, Message: "Internal server error", cause: cause}
}

// From converts any error to an *Error, wrapping unknown errors as
// Internal so storage failures never leak details to clients.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
