package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// AppError is the error every handler reports. Operational errors are
// expected failures whose message is safe to show to clients.
type AppError struct {
	Code        Code
	Message     string
	HTTPCode    int
	Operational bool
	Err         error
	stack       []byte
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is "fail" for client errors and "error" for server errors.
func (e *AppError) Status() string {
	if e.HTTPCode >= 400 && e.HTTPCode < 500 {
		return "fail"
	}
	return "error"
}

// Stack is the goroutine stack where a server fault was recorded. Client
// errors carry none.
func (e *AppError) Stack() string { return string(e.stack) }

func New(code Code, message string, httpCode int) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		HTTPCode:    httpCode,
		Operational: true,
	}
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequests, message, http.StatusTooManyRequests)
}

// Internal is an expected downstream failure (mail server down, storage
// unreachable). Its message is shown to clients.
func Internal(message string, err error) *AppError {
	e := New(CodeInternal, message, http.StatusInternalServerError).WithError(err)
	e.stack = debug.Stack()
	return e
}

// Unexpected wraps an unknown fault. Its details never reach production clients.
func Unexpected(err error) *AppError {
	e := New(CodeInternal, "Something went very wrong!", http.StatusInternalServerError).WithError(err)
	e.Operational = false
	e.stack = debug.Stack()
	return e
}

// CastError reports a value that could not be converted to the stored type,
// typically a malformed ObjectID in a path parameter.
type CastError struct {
	Path  string
	Value string
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast to %s failed for value %q: %v", e.Path, e.Value, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
