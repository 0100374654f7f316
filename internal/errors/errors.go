package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Shelth error code.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "VALIDATION_ERROR" // 400
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"     // 401
	ErrIndex        ErrorCode = "INDEX_ERROR"      // 404
	ErrInternal     ErrorCode = "INTERNAL"         // 500
	ErrRemote       ErrorCode = "REMOTE_ERROR"     // 502
	ErrTimedOut     ErrorCode = "TIMED_OUT"        // 504
)

// ShelthError represents a structured error with code, status, and details.
type ShelthError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the underlying transport or storage error, if any.
	cause error
}

// Error implements the error interface.
func (e *ShelthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause so errors.Is works on it.
func (e *ShelthError) Unwrap() error {
	return e.cause
}

// NewValidation creates a 400 error for malformed local input.
// No network call is issued when this error is returned.
func NewValidation(msg string) *ShelthError {
	return &ShelthError{
		Code:    ErrValidation,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error when the remote service rejects the session credential.
func NewUnauthorized(op string) *ShelthError {
	return &ShelthError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: fmt.Sprintf("%s: session credential rejected", op),
		Details: map[string]any{"op": op},
	}
}

// NewIndex creates a 404 error for a reference to a record that does not exist.
func NewIndex(index, length int) *ShelthError {
	return &ShelthError{
		Code:    ErrIndex,
		Status:  404,
		Message: fmt.Sprintf("record index %d out of range (have %d records)", index, length),
		Details: map[string]any{"index": index, "length": length},
	}
}

// NewRemote creates a 502 error for a failed remote call.
// status is the HTTP status returned by the service, or 0 for transport failures.
func NewRemote(op string, status int, msg string, cause error) *ShelthError {
	details := map[string]any{"op": op}
	if status != 0 {
		details["http_status"] = status
	}
	return &ShelthError{
		Code:    ErrRemote,
		Status:  502,
		Message: fmt.Sprintf("%s: %s", op, msg),
		Details: details,
		cause:   cause,
	}
}

// NewTimedOut creates a 504 error when a remote call does not complete within its deadline.
func NewTimedOut(op string, cause error) *ShelthError {
	return &ShelthError{
		Code:    ErrTimedOut,
		Status:  504,
		Message: fmt.Sprintf("%s: remote call timed out", op),
		Details: map[string]any{"op": op},
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ShelthError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ShelthError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error (or anything it wraps) is a ShelthError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ShelthError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first ShelthError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var sErr *ShelthError
	if stderrors.As(err, &sErr) {
		return sErr.Code
	}
	return ErrInternal
}
