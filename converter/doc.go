// Package converter turns parameter values into their wire strings for
// path, header, cookie, query, matrix and form bindings.
//
// Providers are consulted in registration order; the first one returning a
// Converter for a type wins. Without a match, values use their default
// string form (TextMarshaler, Stringer, then strconv/fmt).
package converter
