package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status of the response that produced this error, if any.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Body is the raw response body for errors mapped from a response.
	Body []byte `json:"-"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Constructors ---

// Definition creates an error for an invalid client descriptor. The owner is
// the interface (or interface::method) the problem was found on.
func Definition(owner, format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeDefinition,
		Message: fmt.Sprintf(format, args...),
		Details: map[string]any{"definition": owner},
	}
}

// Configuration creates an error for unusable client configuration.
func Configuration(reason string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: reason}
}

// WebApplication creates the generic error for an HTTP response that no
// dedicated mapper claimed. The status is kept on the error.
func WebApplication(status int, body []byte) *AppError {
	return &AppError{
		Code:       ErrCodeWebApplication,
		Message:    fmt.Sprintf("Unknown error, status code %d", status),
		HTTPStatus: status,
		Retryable:  status == http.StatusTooManyRequests || status >= http.StatusInternalServerError,
		Body:       body,
		Details:    map[string]any{"status": status},
	}
}

// WrapMapped carries a mapped error whose kind the method does not declare.
func WrapMapped(status int, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeWebApplication,
		Message:    cause.Error(),
		HTTPStatus: status,
		Cause:      cause,
		Details:    map[string]any{"status": status},
	}
}

// Conversion creates an error for a value that could not be turned into its
// wire form, such as a failing header compute function.
func Conversion(target string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeConversion,
		Message: fmt.Sprintf("Unable to produce a value for %s.", target),
		Details: map[string]any{"target": target},
		Cause:   cause,
	}
}

// Decoding creates an error for a response body that could not be read into
// the declared result type.
func Decoding(mediaType string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeDecoding,
		Message: fmt.Sprintf("Unable to decode %s response body.", mediaType),
		Details: map[string]any{"media_type": mediaType},
		Cause:   cause,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Retryable: false, Cause: cause,
	}
}

// IsDefinition reports whether err is a client definition error.
func IsDefinition(err error) bool {
	return hasCode(err, ErrCodeDefinition)
}

// IsWebApplication reports whether err was mapped from an HTTP response by
// the default mapper or wraps an undeclared mapped error.
func IsWebApplication(err error) bool {
	return hasCode(err, ErrCodeWebApplication)
}

// IsConversion reports whether err is a conversion error.
func IsConversion(err error) bool {
	return hasCode(err, ErrCodeConversion)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return 0
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
