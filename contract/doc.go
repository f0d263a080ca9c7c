// Package contract compiles client descriptors into immutable invocation
// models.
//
// A descriptor is first parsed (by package client) into an InterfaceDef: the
// interface-level base path, media types, header rules and providers plus
// one MethodDef per call. Compile validates the definition and produces an
// Interface holding one Method per call:
//
//   - every parameter gets exactly one Role, picked by precedence when
//     several are annotated (Path, Header, Bean, Cookie, Query, Matrix,
//     Form, Body)
//   - path placeholders and Path bindings must match one to one, including
//     bindings nested in beans
//   - header rules are checked for duplicate names and their compute
//     functions resolved once
//
// Compiled contracts hold no per-call state and are shared freely. Bind
// attaches the effective providers (mappers, converters, codecs) and returns
// a new Interface; sub-resource interfaces inherit their parent's providers.
package contract
