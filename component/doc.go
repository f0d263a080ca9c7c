// Package component defines the lifecycle interfaces shared by restproxy's
// long-lived parts: transports and bound clients.
//
// A Registry starts components in registration order and stops them in
// reverse, so a transport registered before the clients that use it outlives
// them on shutdown.
package component
