package utils

import "errors"

// Sentinel errors for the handler's error taxonomy. Model code returns (or
// wraps) these; the handler maps them to a wire code and HTTP status.
var (
	ErrorRecordNotFound       = errors.New("record not found")
	ErrorAlreadyExists        = errors.New("already exists")
	ErrorDuplicateTransaction = errors.New("duplicate transaction id")
	ErrorAccessDenied         = errors.New("access denied")
	ErrorValidation           = errors.New("validation failed")
)

// Wire codes, stable for the client gateway.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeDuplicate     = "DUPLICATE"
	CodeAccessDenied  = "ACCESS_DENIED"
	CodeBusy          = "BUSY"
	CodeValidation    = "VALIDATION"
	CodeInternal      = "INTERNAL"
)

// ErrorCode classifies err into a wire code. Unrecognized errors are
// internal: the caller decides user-facing text, we only tag.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrorRecordNotFound):
		return CodeNotFound
	case errors.Is(err, ErrorAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrorDuplicateTransaction):
		return CodeDuplicate
	case errors.Is(err, ErrorAccessDenied):
		return CodeAccessDenied
	case errors.Is(err, ErrorValidation):
		return CodeValidation
	default:
		return CodeInternal
	}
}
