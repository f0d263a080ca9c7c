package contract

import (
	"net/http"
	"reflect"

	"github.com/kbukum/restproxy/propagation"
)

// Interface is a compiled client interface.
type Interface struct {
	name      string
	typ       reflect.Type
	path      string
	produces  []string
	consumes  []string
	headers   []*HeaderRule
	factory   propagation.HeadersFactory
	own       ownProviders
	providers Providers
	bound     bool
	methods   []*Method
	byName    map[string]*Method
}

// Name returns the interface name used in logs and error messages.
func (i *Interface) Name() string { return i.name }

// Type returns the descriptor type.
func (i *Interface) Type() reflect.Type { return i.typ }

// Path returns the base path template; "/" is returned as "".
func (i *Interface) Path() string { return i.path }

// Produces returns the accepted response media types, "*/*" by default.
func (i *Interface) Produces() []string { return append([]string(nil), i.produces...) }

// Consumes returns the request media types, "*/*" by default.
func (i *Interface) Consumes() []string { return append([]string(nil), i.consumes...) }

// HeaderRules returns the interface-level header rules in declaration order.
func (i *Interface) HeaderRules() []*HeaderRule { return i.headers }

// Factory returns the headers factory, or nil.
func (i *Interface) Factory() propagation.HeadersFactory { return i.factory }

// Providers returns the effective providers. Before Bind they hold only
// the interface's own providers over the defaults.
func (i *Interface) Providers() Providers {
	if i.bound {
		return i.providers
	}
	return Providers{}.merge(i.own)
}

// Bound reports whether the interface was returned by Bind.
func (i *Interface) Bound() bool { return i.bound }

// Methods returns the compiled methods in declaration order.
func (i *Interface) Methods() []*Method { return i.methods }

// Method returns the method with the given name.
func (i *Interface) Method(name string) (*Method, bool) {
	m, ok := i.byName[name]
	return m, ok
}

// Bind returns a copy of i whose providers are its own over parent's.
// Sub-resource interfaces are bound with the resulting providers.
func (i *Interface) Bind(parent Providers) *Interface {
	return i.bind(parent, make(map[*Interface]*Interface))
}

func (i *Interface) bind(parent Providers, memo map[*Interface]*Interface) *Interface {
	if b, ok := memo[i]; ok {
		return b
	}
	cp := *i
	cp.providers = parent.merge(i.own)
	cp.bound = true
	memo[i] = &cp

	cp.methods = make([]*Method, len(i.methods))
	cp.byName = make(map[string]*Method, len(i.methods))
	for k, m := range i.methods {
		mc := *m
		mc.owner = &cp
		if m.child != nil {
			mc.child = m.child.bind(cp.providers, memo)
		}
		cp.methods[k] = &mc
		cp.byName[mc.name] = &mc
	}
	return &cp
}

// Method is a compiled client method.
type Method struct {
	owner    *Interface
	name     string
	verb     string
	path     string
	produces []string
	consumes []string
	headers  []*HeaderRule
	bindings []*Binding
	result   Result
	errors   []reflect.Type
	child    *Interface
	hasBody  bool
	hasForm  bool
}

// Name returns the descriptor field name.
func (m *Method) Name() string { return m.name }

// Interface returns the owning interface.
func (m *Method) Interface() *Interface { return m.owner }

// String returns "Interface::Method".
func (m *Method) String() string { return m.owner.name + "::" + m.name }

// Verb returns the HTTP method; it is empty for sub-resource locators.
func (m *Method) Verb() string { return m.verb }

// Path returns the method path template, relative to the interface path.
func (m *Method) Path() string { return m.path }

// Produces returns the accepted response media types.
func (m *Method) Produces() []string { return append([]string(nil), m.produces...) }

// Consumes returns the request media types; the first one is used.
func (m *Method) Consumes() []string { return append([]string(nil), m.consumes...) }

// HeaderRules returns the method-level header rules.
func (m *Method) HeaderRules() []*HeaderRule { return m.headers }

// Bindings returns the argument bindings in argument order.
func (m *Method) Bindings() []*Binding { return m.bindings }

// Result returns the shape of the method's return value.
func (m *Method) Result() Result { return m.result }

// Errors returns the declared error types.
func (m *Method) Errors() []reflect.Type { return m.errors }

// Child returns the sub-resource interface, or nil.
func (m *Method) Child() *Interface { return m.child }

// IsSubResource reports whether the method returns a nested client.
func (m *Method) IsSubResource() bool { return m.child != nil }

// HasBody reports whether an argument is bound to the body.
func (m *Method) HasBody() bool { return m.hasBody }

// HasForm reports whether arguments are bound to form fields.
func (m *Method) HasForm() bool { return m.hasForm }

// SendsBody reports whether the verb carries a request body.
func (m *Method) SendsBody() bool {
	switch m.verb {
	case http.MethodGet, http.MethodDelete, http.MethodHead:
		return false
	}
	return true
}
