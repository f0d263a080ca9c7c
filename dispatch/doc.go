// Package dispatch executes compiled client methods.
//
// Dispatcher.Dispatch turns one call of a contract.Method into a
// transport.Request: it resolves the path template, adds query and matrix
// parameters, composes headers (interface rules, method rules, call-site
// headers, then the optional headers factory), sets cookies and encodes the
// body. The request runs synchronously on the caller goroutine or, for
// methods returning a *Future, on the transport executor.
//
// The response is evaluated against the interface's mapper registry. A
// mapped error is returned (or rejects the future); otherwise the body is
// decoded into the declared result type. Transport failures are returned
// unchanged and never reach the mappers.
//
// Sub-resource locators perform no I/O: Dispatch returns a *SubResource
// holding the resolved target and the child interface.
package dispatch
