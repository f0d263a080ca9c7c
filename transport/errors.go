package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode classifies transport failures.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, etc).
	ErrCodeConnection
	// ErrCodeCancelled indicates the caller cancelled the request.
	ErrCodeCancelled
	// ErrCodeRejected indicates the request was refused locally by the
	// circuit breaker, rate limiter or async executor.
	ErrCodeRejected
	// ErrCodeInvalid indicates the request could not be built.
	ErrCodeInvalid
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeCancelled:
		return "cancelled"
	case ErrCodeRejected:
		return "rejected"
	case ErrCodeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is a failure to obtain a response.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Method and URL identify the request.
	Method string
	URL    string
	// Retryable indicates whether another attempt may succeed.
	Retryable bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("transport: %s %s %s: %v", e.Code, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify wraps err from sending req into an *Error. Errors that already
// are *Error are returned unchanged.
func Classify(ctx context.Context, req *Request, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	e := &Error{Err: err}
	if req != nil {
		e.Method, e.URL = req.Method, req.URL
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled) || (ctx != nil && errors.Is(ctx.Err(), context.Canceled)):
		e.Code = ErrCodeCancelled
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		e.Code, e.Retryable = ErrCodeTimeout, true
	default:
		e.Code, e.Retryable = ErrCodeConnection, true
	}
	return e
}

// NewRejectedError reports a request refused before it was sent.
func NewRejectedError(req *Request, err error) *Error {
	e := &Error{Code: ErrCodeRejected, Err: err}
	if req != nil {
		e.Method, e.URL = req.Method, req.URL
	}
	return e
}

// NewInvalidError reports a request that could not be built.
func NewInvalidError(req *Request, err error) *Error {
	e := &Error{Code: ErrCodeInvalid, Err: err}
	if req != nil {
		e.Method, e.URL = req.Method, req.URL
	}
	return e
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsCancelled checks if an error is a cancellation.
func IsCancelled(err error) bool { return hasCode(err, ErrCodeCancelled) }

// IsRejected checks if an error is a local rejection.
func IsRejected(err error) bool { return hasCode(err, ErrCodeRejected) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// RetryableStatus reports whether a response status is worth retrying:
// 429 and 5xx other than 501.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		(status >= 500 && status != http.StatusNotImplemented)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
