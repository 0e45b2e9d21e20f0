// Package domain defines the core domain models for objhost.
package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form OH-<AREA>-<NNNN>; the first three digits of the
// numeric suffix are the HTTP status the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "OH-OBJ-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// HTTPStatus returns the HTTP status encoded in the error code,
// or 500 if the code carries none.
func (e *DomainError) HTTPStatus() int {
	if len(e.Code) < 4 {
		return 500
	}
	suffix := e.Code[len(e.Code)-4:]
	status, err := strconv.Atoi(suffix[:3])
	if err != nil || status < 400 || status > 599 {
		return 500
	}
	return status
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Object errors (OBJ).
var (
	// ErrObjectNotFound indicates the requested object does not exist.
	ErrObjectNotFound = NewDomainError("OH-OBJ-4040", "object not found")

	// ErrObjectReleased indicates the object was already released.
	ErrObjectReleased = NewDomainError("OH-OBJ-4100", "object already released")

	// ErrObjectValidation indicates the create request is malformed.
	ErrObjectValidation = NewDomainError("OH-OBJ-4000", "invalid object request")
)

// Class errors (CLS).
var (
	// ErrClassNotFound indicates the requested class is not exposed.
	ErrClassNotFound = NewDomainError("OH-CLS-4040", "class not found")

	// ErrClassFactory indicates the class factory failed to create an instance.
	ErrClassFactory = NewDomainError("OH-CLS-5000", "class factory failed")
)

// System errors (SYS).
var (
	// ErrNotAccepting indicates the server is not in the Running state.
	ErrNotAccepting = NewDomainError("OH-SYS-5030", "server is not accepting objects")

	// ErrRateLimited indicates the caller exceeded the request rate.
	ErrRateLimited = NewDomainError("OH-SYS-4290", "too many requests")

	// ErrBadRequest indicates a malformed request body or parameter.
	ErrBadRequest = NewDomainError("OH-SYS-4000", "bad request")

	// ErrUnauthorized indicates missing or wrong admin credentials.
	ErrUnauthorized = NewDomainError("OH-SYS-4010", "unauthorized")

	// ErrForbidden indicates the caller is not allowed to use an endpoint.
	ErrForbidden = NewDomainError("OH-SYS-4030", "forbidden")

	// ErrInternalServer indicates an unexpected internal failure.
	ErrInternalServer = NewDomainError("OH-SYS-5000", "internal server error")
)
