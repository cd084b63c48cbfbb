package utils

import (
	"errors"
	"fmt"
	"strings"
)

// AppError application error structure
type AppError struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Details []string     `json:"details,omitempty"`
	Err     error        `json:"-"`
}

// Error implement error interface
func (e *AppError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("code: %d, message: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("code: %d, message: %s, error: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// Unwrap implement errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError create new application error
func NewError(code ResponseCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WrapError wrap error
func WrapError(err error, code ResponseCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error carrying the full list of
// field-level reasons. Callers receive every violation in one response.
func NewValidationError(reasons []string) *AppError {
	return &AppError{
		Code:    CodeValidationFailed,
		Message: "validation failed",
		Details: reasons,
	}
}

// ValidationCollector accumulates field-level validation failures so that a
// request is checked completely instead of failing on the first problem.
type ValidationCollector struct {
	reasons []string
}

// Addf records a validation failure
func (v *ValidationCollector) Addf(format string, args ...interface{}) {
	v.reasons = append(v.reasons, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any failure was recorded
func (v *ValidationCollector) HasErrors() bool {
	return len(v.reasons) > 0
}

// Reasons returns the recorded failures
func (v *ValidationCollector) Reasons() []string {
	return v.reasons
}

// Err returns the accumulated validation error, or nil when clean
func (v *ValidationCollector) Err() error {
	if len(v.reasons) == 0 {
		return nil
	}
	return NewValidationError(v.reasons)
}

// Predefined errors
var (
	// Parameter errors
	ErrInvalidParam = NewError(CodeInvalidParam, "invalid parameter")

	// User related errors
	ErrUserNotFound     = NewError(CodeNotFound, "user not found")
	ErrSupplierNotFound = NewError(CodeNotFound, "supplier not found")
	ErrForbidden        = NewError(CodeForbidden, "operation not allowed for this user")

	// Product related errors
	ErrProductNotFound = NewError(CodeNotFound, "product not found")
	ErrStockConflict   = NewError(CodeConflict, "insufficient stock")

	// Order related errors
	ErrOrderNotFound     = NewError(CodeNotFound, "order not found")
	ErrDuplicateOrderNo  = NewError(CodeConflict, "duplicate order number, retry the request")
	ErrIllegalTransition = NewError(CodeIllegalTransition, "illegal status transition")
	ErrRatingExists      = NewError(CodeConflict, "order already rated")
	ErrNotRatable        = NewError(CodeIllegalTransition, "only delivered orders can be rated")

	// System errors
	ErrInternalError = NewError(CodeInternalError, "internal server error")
)

// IsAppError check if it's an application error
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode get error code
func GetErrorCode(err error) ResponseCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternalError
}

// GetErrorMessage get error message
func GetErrorMessage(err error) string {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// IsRetryable reports whether the caller may retry with fresh data
func IsRetryable(err error) bool {
	return GetErrorCode(err) == CodeConflict
}
