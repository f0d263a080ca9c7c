package contract

import (
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/kbukum/restproxy/codec"
	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/transport"
)

var verbs = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodDelete: true,
	http.MethodPatch: true, http.MethodHead: true, http.MethodOptions: true,
}

// Options configure compilation.
type Options struct {
	// Compute resolves dotted compute references.
	Compute *ComputeRegistry
	// Parse produces the definition of a sub-resource descriptor type.
	// Sub-resource locators fail to compile without it.
	Parse func(t reflect.Type) (*InterfaceDef, error)
}

// Compile validates def and returns its compiled interface.
func Compile(def *InterfaceDef, opts Options) (*Interface, error) {
	c := &compiler{opts: opts, done: make(map[reflect.Type]*Interface)}
	return c.compile(def)
}

type compiler struct {
	opts Options
	done map[reflect.Type]*Interface
}

func (c *compiler) compile(def *InterfaceDef) (*Interface, error) {
	if def == nil {
		return nil, errors.Definition("", "nil interface definition")
	}
	if def.Type != nil {
		if iface, ok := c.done[def.Type]; ok {
			return iface, nil
		}
	}
	name := def.Name
	if name == "" && def.Type != nil {
		name = def.Type.Name()
	}

	own, err := classify(def.Providers)
	if err != nil {
		return nil, errors.Definition(name, "%v", err)
	}
	headers, err := compileHeaders(name, def.Headers, def.Type, c.opts.Compute)
	if err != nil {
		return nil, err
	}

	iface := &Interface{
		name:     name,
		typ:      def.Type,
		path:     normalizePath(def.Path),
		produces: mediaTypes(def.Produces, nil),
		consumes: mediaTypes(def.Consumes, nil),
		headers:  headers,
		factory:  def.Factory,
		own:      own,
		byName:   make(map[string]*Method, len(def.Methods)),
	}
	// Registered before methods so recursive sub-resources resolve to it.
	if def.Type != nil {
		c.done[def.Type] = iface
	}

	for i := range def.Methods {
		m, err := c.compileMethod(iface, &def.Methods[i])
		if err != nil {
			if def.Type != nil {
				delete(c.done, def.Type)
			}
			return nil, err
		}
		if _, dup := iface.byName[m.name]; dup {
			return nil, errors.Definition(name, "method %s declared more than once", m.name)
		}
		iface.methods = append(iface.methods, m)
		iface.byName[m.name] = m
	}
	return iface, nil
}

func (c *compiler) compileMethod(iface *Interface, def *MethodDef) (*Method, error) {
	owner := iface.name + "::" + def.Name
	m := &Method{
		owner:    iface,
		name:     def.Name,
		path:     normalizePath(def.Path),
		produces: mediaTypes(def.Produces, iface.produces),
		consumes: mediaTypes(def.Consumes, iface.consumes),
		result:   def.Result,
		errors:   append([]reflect.Type(nil), def.Errors...),
	}

	verb, err := pickVerb(owner, def.Verbs)
	if err != nil {
		return nil, err
	}
	m.verb = verb
	if verb == "" && def.Path == "" {
		return nil, errors.Definition(owner, "method has neither an HTTP method nor a path")
	}

	if m.headers, err = compileHeaders(owner, def.Headers, iface.typ, c.opts.Compute); err != nil {
		return nil, err
	}

	for _, p := range def.Params {
		b, err := compileParam(owner, p)
		if err != nil {
			return nil, err
		}
		m.bindings = append(m.bindings, b)
	}
	if err := checkBindings(owner, m); err != nil {
		return nil, err
	}
	if err := checkPath(owner, transport.JoinPath(iface.path, m.path), m.bindings); err != nil {
		return nil, err
	}

	if verb == "" {
		if err := c.compileSubResource(owner, m, def); err != nil {
			return nil, err
		}
	} else if def.Result.Kind == ResultSubResource {
		return nil, errors.Definition(owner, "sub-resource locator cannot declare HTTP method %s", verb)
	}
	return m, nil
}

func (c *compiler) compileSubResource(owner string, m *Method, def *MethodDef) error {
	if def.Result.Kind != ResultSubResource || def.SubType == nil {
		return errors.Definition(owner, "method without an HTTP method must return a sub-resource")
	}
	if def.Result.Async {
		return errors.Definition(owner, "sub-resource locator cannot be asynchronous")
	}
	if m.hasBody || m.hasForm {
		return errors.Definition(owner, "sub-resource locator cannot bind a body or form fields")
	}
	if child, ok := c.done[def.SubType]; ok {
		m.child = child
		return nil
	}
	if c.opts.Parse == nil {
		return errors.Definition(owner, "cannot parse sub-resource %s", def.SubType)
	}
	childDef, err := c.opts.Parse(def.SubType)
	if err != nil {
		return err
	}
	child, err := c.compile(childDef)
	if err != nil {
		return err
	}
	m.child = child
	return nil
}

func pickVerb(owner string, declared []string) (string, error) {
	var out []string
	for _, v := range declared {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	switch len(out) {
	case 0:
		return "", nil
	case 1:
		if !verbs[out[0]] {
			return "", errors.Definition(owner, "unknown HTTP method %q", out[0])
		}
		return out[0], nil
	default:
		return "", errors.Definition(owner, "more than one HTTP method declared: %s", strings.Join(out, ", "))
	}
}

func checkBindings(owner string, m *Method) error {
	bodies := 0
	for _, b := range m.bindings {
		if b.Role == RoleBody {
			bodies++
		}
	}
	if bodies > 1 {
		return errors.Definition(owner, "%d parameters bound to the body", bodies)
	}
	m.hasBody = bodies == 1
	for _, b := range Leaves(m.bindings) {
		if b.Role == RoleForm {
			m.hasForm = true
		}
	}
	if m.hasBody && m.hasForm {
		return errors.Definition(owner, "form parameters cannot be combined with a body")
	}
	return nil
}

// checkPath requires the placeholders of template and the Path bindings to
// match one to one.
func checkPath(owner, template string, bindings []*Binding) error {
	placeholders := make(map[string]bool)
	for _, p := range transport.Placeholders(template) {
		placeholders[p] = true
	}
	bound := make(map[string]bool)
	for _, b := range Leaves(bindings) {
		if b.Role != RolePath {
			continue
		}
		if bound[b.Name] {
			return errors.Definition(owner, "path parameter %q bound more than once", b.Name)
		}
		bound[b.Name] = true
		if !placeholders[b.Name] {
			return errors.Definition(owner, "path parameter %q has no placeholder in %q", b.Name, template)
		}
	}
	var missing []string
	for p := range placeholders {
		if !bound[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Definition(owner, "placeholders %v in %q have no path parameter", missing, template)
	}
	return nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "/" {
		return ""
	}
	return p
}

func mediaTypes(declared, inherited []string) []string {
	var out []string
	for _, d := range declared {
		for _, part := range strings.Split(d, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	if len(inherited) > 0 {
		return append([]string(nil), inherited...)
	}
	return []string{codec.MediaWildcard}
}
