package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Client definition errors (raised while compiling a client descriptor)
const (
	// ErrCodeDefinition indicates an invalid client descriptor.
	ErrCodeDefinition ErrorCode = "DEFINITION_ERROR"
	// ErrCodeConfiguration indicates invalid or incomplete client configuration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// Invocation errors (raised while a call is in flight)
const (
	// ErrCodeWebApplication indicates an HTTP response mapped to an error.
	ErrCodeWebApplication ErrorCode = "WEB_APPLICATION_ERROR"
	// ErrCodeConversion indicates a parameter or header value could not be produced.
	ErrCodeConversion ErrorCode = "CONVERSION_ERROR"
	// ErrCodeDecoding indicates a response body could not be decoded.
	ErrCodeDecoding ErrorCode = "DECODING_ERROR"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the remote service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// ErrCodeInternal indicates an unexpected internal failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
