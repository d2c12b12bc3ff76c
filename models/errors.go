package models

import (
	"errors"
	"fmt"
)

// Error codes recorded in outcomes and returned by the runner.
const (
	ErrCodeLaunch            = "LAUNCH_FAILED"
	ErrCodeNavigationTimeout = "NAVIGATION_TIMEOUT"
	ErrCodeNavigation        = "NAVIGATION_FAILED"
	ErrCodeOperation         = "OPERATION_FAILED"
	ErrCodeResourceExhausted = "RESOURCE_EXHAUSTED"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeCanceled          = "RUN_CANCELED"
	ErrCodeAborted           = "RUN_ABORTED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ErrorDetail is the error as it appears in an Outcome and in reports.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type RunError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError.
func NewRunError(code, message string, err error) *RunError {
	return &RunError{Code: code, Message: message, Err: err}
}

// ToDetail converts the error to an ErrorDetail. The wrapped engine message
// is kept so the report shows the original diagnostic.
func (e *RunError) ToDetail() *ErrorDetail {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return &ErrorDetail{Code: e.Code, Message: msg}
}

// AsRunError returns err as a *RunError, wrapping foreign errors under
// ErrCodeInternal.
func AsRunError(err error) *RunError {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr
	}
	return NewRunError(ErrCodeInternal, "unexpected error", err)
}

// CodeOf returns the code of the first RunError in err's chain, or "".
func CodeOf(err error) string {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Code
	}
	return ""
}

// IsFatal reports whether err aborts the whole run rather than a single item.
// A fatal error means no report is produced.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeLaunch, ErrCodeAborted:
		return true
	}
	return false
}
