package contract

import (
	"reflect"

	"github.com/kbukum/restproxy/propagation"
)

// InterfaceDef is a parsed, not yet validated, client interface.
type InterfaceDef struct {
	Name string
	// Type is the descriptor struct type. Compute references without a dot
	// resolve to methods of *Type.
	Type     reflect.Type
	Path     string
	Produces []string
	Consumes []string
	Headers  []HeaderRuleDef
	// Factory, when set, rewrites the outbound headers of every call.
	Factory propagation.HeadersFactory
	// Providers are mappers, converter providers and codecs that apply to
	// this interface and its sub-resources.
	Providers []any
	Methods   []MethodDef
}

// MethodDef is a parsed client method.
type MethodDef struct {
	Name string
	// Verbs holds the declared HTTP methods; more than one is an error and
	// none makes the method a sub-resource locator.
	Verbs    []string
	Path     string
	Produces []string
	Consumes []string
	Headers  []HeaderRuleDef
	Params   []ParamDef
	Result   Result
	// Errors are the error types the method declares. Mapped errors of
	// other types are wrapped.
	Errors []reflect.Type
	// SubType is the descriptor type returned by a sub-resource locator.
	SubType reflect.Type
}

// ParamDef is one non-context method argument.
type ParamDef struct {
	// Index is the argument position, not counting a leading context.
	Index       int
	Type        reflect.Type
	Annotations []Annotation
}

// Annotation binds a parameter to a role under a name.
type Annotation struct {
	Role Role
	Name string
}

// HeaderRuleDef is a declared header. A single value of the form {name}
// is a compute reference.
type HeaderRuleDef struct {
	Name     string
	Values   []string
	Required bool
}

// ResultKind is what a method returns to its caller.
type ResultKind int

const (
	// ResultNone returns only an error.
	ResultNone ResultKind = iota
	// ResultValue decodes the body into Result.Type.
	ResultValue
	// ResultRaw returns the *transport.Response.
	ResultRaw
	// ResultSubResource returns a client for Method.Child.
	ResultSubResource
)

// Result describes a method's return shape.
type Result struct {
	Kind ResultKind
	// Type is the decoded value type for ResultValue.
	Type reflect.Type
	// Async methods return a future of Future type.
	Async  bool
	Future reflect.Type
}
