package hal

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
	EINTERNAL = "internal"

	EBLOCKED           = "blocked_target"
	ETIMEOUT           = "render_timeout"
	ENAVIGATION        = "render_navigation_failed"
	EVISIONUNAVAILABLE = "vision_unavailable"
	EUNKNOWNTICKER     = "unknown_ticker"
	ENOFILING          = "no_filing_found"
	ECACHEIO           = "cache_io_error"
)

// Error represents an application-specific error. Code is one of the
// constants above; Reason further classifies EBLOCKED errors.
type Error struct {
	Code    string
	Reason  BlockReason
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause so errors.Is can see through it.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrapf is like Errorf but keeps err as the underlying cause.
func Wrapf(code string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Blocked returns an EBLOCKED error carrying the reason the target was refused.
func Blocked(reason BlockReason, format string, args ...any) *Error {
	return &Error{
		Code:    EBLOCKED,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorReason returns the block reason of an EBLOCKED error, or "" otherwise.
func ErrorReason(err error) BlockReason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
