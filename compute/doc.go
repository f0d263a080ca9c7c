// Package compute provides header compute functions.
//
// Compute functions produce header values at call time. Descriptors
// reference them by their registered name:
//
//	client.Resource `headers:"X-Request-ID: {compute.RequestID}; Authorization: {auth.Bearer}"`
//
// Register adds RequestID and Timestamp to a registry under the "compute."
// prefix; JWTBearer builds a function that signs a bearer token with
// golang-jwt and reuses it until it nears expiry.
package compute
