// Package errors provides the structured application error used across Pitlane.
//
// Every failure that reaches the HTTP layer is an *AppError carrying a stable
// machine code, a human message and the HTTP status it maps to. Params and
// field errors are rendered to the client verbatim; the wrapped cause is only
// logged.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a failure with a stable code and the HTTP status it maps to.
type AppError struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	HTTPStatus  int                    `json:"-"`
	Params      map[string]interface{} `json:"params,omitempty"`
	FieldErrors []FieldError           `json:"field_errors,omitempty"`

	// Err is the cause; never shown to clients.
	Err error `json:"-"`
}

// FieldError points at one offending request field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap attaches a cause to a new AppError.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// WithParams merges params into the error's params.
func (e *AppError) WithParams(params map[string]interface{}) *AppError {
	if e == nil || len(params) == 0 {
		return e
	}
	if e.Params == nil {
		e.Params = make(map[string]interface{}, len(params))
	}
	for k, v := range params {
		e.Params[k] = v
	}
	return e
}

// WithParam sets a single param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	return e.WithParams(map[string]interface{}{key: value})
}

// WithFieldErrors appends field errors.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e == nil || len(fieldErrors) == 0 {
		return e
	}
	e.FieldErrors = append(e.FieldErrors, fieldErrors...)
	return e
}

// WithField appends one field error.
func (e *AppError) WithField(field, code, message string) *AppError {
	return e.WithFieldErrors([]FieldError{{Field: field, Code: code, Message: message}})
}

// BadRequest creates a 400 error.
func BadRequest(code, message string) *AppError {
	return New(code, message, http.StatusBadRequest)
}

// Unauthorized creates a 401 error.
func Unauthorized(code, message string) *AppError {
	return New(code, message, http.StatusUnauthorized)
}

// Forbidden creates a 403 error. Role and ownership mismatches use it; record
// visibility mismatches return NotFound instead.
func Forbidden(code, message string) *AppError {
	return New(code, message, http.StatusForbidden)
}

// NotFound creates a 404 error.
func NotFound(code, message string) *AppError {
	return New(code, message, http.StatusNotFound)
}

// Conflict creates a 409 error for a write refused by a workflow invariant.
func Conflict(code, message string) *AppError {
	return New(code, message, http.StatusConflict)
}

// IsAppError returns the AppError in err's chain.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err's chain holds an AppError with code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == code
}

// StatusOf returns the HTTP status for err, 500 for anything not an AppError.
func StatusOf(err error) int {
	if appErr, ok := IsAppError(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
