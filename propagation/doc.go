// Package propagation carries inbound request headers to outbound client
// calls.
//
// Inbound headers travel in a context.Context. Middleware (net/http) and
// GinMiddleware (gin) place the headers of the request being served into its
// context; clients read them back with Inbound and hand them to the
// interface's HeadersFactory together with the headers they composed.
//
// Call sites that cannot thread a context may publish headers in a Store;
// Inbound falls back to the global store when the context carries none.
package propagation
