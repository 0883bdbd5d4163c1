// Package apperr defines the shared error-kind taxonomy used across the
// auth, sanitize, and handoff packages. It is a small leaf package
// (sanitize and handoff both need error kinds without importing auth,
// which would otherwise create an import cycle once auth starts
// sanitizing its own inputs).
package apperr

import "fmt"

// Code is a stable, machine-readable identifier for an error kind.
type Code string

const (
	AuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	AuthenticationFailed   Code = "AUTHENTICATION_FAILED"
	AuthorizationFailed    Code = "AUTHORIZATION_FAILED"
	InvalidInput           Code = "INVALID_INPUT"
	PayloadTooLarge        Code = "PAYLOAD_TOO_LARGE"
	DepthExceeded          Code = "DEPTH_EXCEEDED"
	RateLimitExceeded      Code = "RATE_LIMIT_EXCEEDED"
	StorageError           Code = "STORAGE_ERROR"
	CorruptStore           Code = "CORRUPT_STORE"
)

// statusForCode maps each kind to an HTTP-shaped status, used only to
// pick CLI exit codes; nothing in this module serves HTTP.
var statusForCode = map[Code]int{
	AuthenticationRequired: 401,
	AuthenticationFailed:   401,
	AuthorizationFailed:    403,
	InvalidInput:           400,
	PayloadTooLarge:        413,
	DepthExceeded:          400,
	RateLimitExceeded:      429,
	StorageError:           500,
	CorruptStore:           500,
}

// Error is the single error type returned by this module's public API.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status returns the HTTP-shaped status associated with the error's code.
func (e *Error) Status() int {
	if s, ok := statusForCode[e.Code]; ok {
		return s
	}
	return 500
}

// Is supports errors.Is by comparing error codes.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New builds an *Error with no extra details.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewWithDetails builds an *Error carrying field-level details.
func NewWithDetails(code Code, message string, details map[string]interface{}) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// CodeOf extracts the Code from err if it is an *Error, returning
// ("", false) otherwise.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return "", false
	}
	if e, ok := err.(*Error); ok {
		return e.Code, true
	}
	return "", false
}
