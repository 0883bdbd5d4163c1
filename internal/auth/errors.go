package auth

import "github.com/streamspace-dev/forgeauth/internal/apperr"

// Error-kind aliases so callers of this package never need to import
// internal/apperr directly; the auth package is the public surface.
type (
	ErrorCode = apperr.Code
	Error     = apperr.Error
)

const (
	CodeAuthenticationRequired = apperr.AuthenticationRequired
	CodeAuthenticationFailed   = apperr.AuthenticationFailed
	CodeAuthorizationFailed    = apperr.AuthorizationFailed
	CodeInvalidInput           = apperr.InvalidInput
	CodePayloadTooLarge        = apperr.PayloadTooLarge
	CodeDepthExceeded          = apperr.DepthExceeded
	CodeRateLimitExceeded      = apperr.RateLimitExceeded
	CodeStorageError           = apperr.StorageError
	CodeCorruptStore           = apperr.CorruptStore
)

// New builds an *Error with no extra details.
func New(code ErrorCode, message string) *Error { return apperr.New(code, message) }

// NewWithDetails builds an *Error carrying field-level details.
func NewWithDetails(code ErrorCode, message string, details map[string]interface{}) *Error {
	return apperr.NewWithDetails(code, message, details)
}

// CodeOf extracts the ErrorCode from err if it is an *Error.
func CodeOf(err error) (ErrorCode, bool) { return apperr.CodeOf(err) }

func errAuthenticationRequired(msg string) *Error { return New(CodeAuthenticationRequired, msg) }
func errAuthenticationFailed(msg string) *Error   { return New(CodeAuthenticationFailed, msg) }
func errAuthorizationFailed(msg string) *Error    { return New(CodeAuthorizationFailed, msg) }
func errInvalidInput(msg string) *Error           { return New(CodeInvalidInput, msg) }
func errPayloadTooLarge(msg string) *Error        { return New(CodePayloadTooLarge, msg) }
func errDepthExceeded(msg string) *Error          { return New(CodeDepthExceeded, msg) }
func errRateLimitExceeded(msg string) *Error      { return New(CodeRateLimitExceeded, msg) }
func errStorageError(msg string) *Error           { return New(CodeStorageError, msg) }
func errCorruptStore(msg string) *Error           { return New(CodeCorruptStore, msg) }
