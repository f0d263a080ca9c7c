// Package errors provides the structured error type used across restproxy.
// Build-time definition problems, mapped HTTP responses, and value conversion
// failures are all reported as *AppError with a machine-readable code.
package errors
