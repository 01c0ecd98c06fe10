package weft

import (
	"errors"
	"fmt"
	"time"
)

// Application error codes.
//
// NOTE: these are meant to be generic and they map well to HTTP error
// codes and to retry decisions.
const (
	ECONFLICT  = "conflict"   // action cannot be performed
	EINTERNAL  = "internal"   // internal error
	EINVALID   = "invalid"    // validation or configuration failed
	ENOTFOUND  = "not_found"  // entity does not exist
	ENETWORK   = "network"    // fetch or transport failure
	EPARSE     = "parse"      // document could not be parsed
	ERATELIMIT = "rate_limit" // remote host asked us to slow down
	EQUALITY   = "quality"    // extracted data below quality threshold
)

// Error represents an application-specific error. Application errors can
// be unwrapped by the caller to extract out the code and message.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message.
	Message string

	// StatusCode carries the HTTP status for network errors.
	// Zero when unknown or not applicable.
	StatusCode int

	// RetryAfter carries a server-provided delay hint for rate-limit
	// errors. Zero when the server did not provide one.
	RetryAfter time.Duration

	// Score and Threshold describe quality errors.
	Score     float64
	Threshold float64
}

// Error implements the error interface. Not used by the application
// otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("weft error: code=%s message=%s", e.Code, e.Message)
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
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NetworkErrorf returns an ENETWORK error carrying an HTTP status.
func NetworkErrorf(statusCode int, format string, args ...any) *Error {
	return &Error{
		Code:       ENETWORK,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// RateLimitErrorf returns an ERATELIMIT error carrying the server's
// retry-after hint, if any.
func RateLimitErrorf(retryAfter time.Duration, format string, args ...any) *Error {
	return &Error{
		Code:       ERATELIMIT,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: 429,
		RetryAfter: retryAfter,
	}
}

// QualityErrorf returns an EQUALITY error carrying the failing score and
// the threshold it missed.
func QualityErrorf(score, threshold float64, format string, args ...any) *Error {
	return &Error{
		Code:      EQUALITY,
		Message:   fmt.Sprintf(format, args...),
		Score:     score,
		Threshold: threshold,
	}
}

// Retryable reports whether err represents a transient condition that may
// succeed on a later attempt. Rate-limit errors and network errors are
// retryable, except network errors with a 4xx client-error status.
// Validation, configuration, and quality errors are never retryable.
func Retryable(err error) bool {
	var e *Error
	if err == nil || !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case ERATELIMIT:
		return true
	case ENETWORK:
		if e.StatusCode >= 400 && e.StatusCode < 500 {
			return false
		}
		return true
	default:
		return false
	}
}

// RetryAfterHint unwraps an application error and returns the server's
// retry-after hint, or zero if none was provided.
func RetryAfterHint(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}
