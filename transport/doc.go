// Package transport is the HTTP collaborator behind restproxy clients.
//
// The dispatcher builds a Request against an immutable Target and hands it to
// a Transport. Non-2xx responses come back as responses, not errors: only
// failures to obtain a response (timeouts, connection errors, cancellation,
// rejection by a limiter) are returned as *Error.
//
// Two implementations are provided: HTTP, built on net/http with HTTP/2,
// a public-suffix cookie jar, go-retryablehttp retries, a circuit breaker and
// a rate limiter; and Resty, built on go-resty. Both run async calls on a
// bounded executor.
package transport
