package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError pairs a stable code with a human-readable message and an
// optional cause. The cause is never serialized.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is makes two AppErrors equal when their codes and messages match, so
// sentinel errors below work with errors.Is.
func (e *AppError) Is(target error) bool {
	var app *AppError
	if !errors.As(target, &app) {
		return false
	}
	return e.Code == app.Code && e.Message == app.Message
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error      { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) error        { return New(CodeNotFound, msg) }
func AlreadyExists(msg string) error   { return New(CodeAlreadyExists, msg) }
func Unauthenticated(msg string) error { return New(CodeUnauthenticated, msg) }
func Forbidden(msg string) error       { return New(CodePermissionDenied, msg) }
func Internal(msg string) error        { return New(CodeInternal, msg) }

// CodeOf extracts the stable code of any error, defaulting to UNKNOWN.
func CodeOf(err error) Code {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeUnknown
}

// HTTPStatus maps a stable code to the status the HTTP boundary returns.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeAuthenticationFailed, CodeIntegrityMismatch:
		return http.StatusUnprocessableEntity
	case CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
