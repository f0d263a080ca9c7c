package contract

import (
	"fmt"
	"net/textproto"
	"reflect"
	"strings"

	"github.com/kbukum/restproxy/errors"
)

var (
	stringType      = reflect.TypeFor[string]()
	stringSliceType = reflect.TypeFor[[]string]()
	errorType       = reflect.TypeFor[error]()
)

// HeaderRule is a compiled declared header.
type HeaderRule struct {
	name     string
	values   []string
	required bool
	compute  *computeFunc
}

// Name returns the canonical header name.
func (r *HeaderRule) Name() string { return r.name }

// Required reports whether a failing compute function fails the call.
func (r *HeaderRule) Required() bool { return r.required }

// IsCompute reports whether the values come from a compute function.
func (r *HeaderRule) IsCompute() bool { return r.compute != nil }

// Resolve returns the header values for one call. A compute function fails
// when it returns an error or panics. A failing required one yields a
// conversion error; a failing optional one yields no values.
func (r *HeaderRule) Resolve() ([]string, error) {
	if r.compute == nil {
		return append([]string(nil), r.values...), nil
	}
	vals, err := r.compute.call(r.name)
	if err != nil {
		if r.required {
			return nil, errors.Conversion("header "+r.name, err)
		}
		return nil, nil
	}
	return vals, nil
}

type computeFunc struct {
	ref       string
	fn        reflect.Value
	method    string
	owner     reflect.Type
	takesName bool
	multi     bool
	hasErr    bool
}

func (c *computeFunc) call(header string) (vals []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			vals, err = nil, fmt.Errorf("compute %s panicked: %v", c.ref, r)
		}
	}()
	fn := c.fn
	if c.method != "" {
		fn = reflect.New(c.owner).MethodByName(c.method)
	}
	var in []reflect.Value
	if c.takesName {
		in = []reflect.Value{reflect.ValueOf(header)}
	}
	out := fn.Call(in)
	if c.hasErr {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	if c.multi {
		return append([]string(nil), out[0].Interface().([]string)...), nil
	}
	s := out[0].String()
	if s == "" {
		return nil, nil
	}
	return []string{s}, nil
}

// shape inspects a compute function type. skip is the number of leading
// receiver arguments.
func shape(t reflect.Type, skip int) (c computeFunc, ok bool) {
	if t.Kind() != reflect.Func || t.IsVariadic() {
		return c, false
	}
	switch t.NumIn() - skip {
	case 0:
	case 1:
		if t.In(skip) != stringType {
			return c, false
		}
		c.takesName = true
	default:
		return c, false
	}
	switch t.NumOut() {
	case 2:
		if t.Out(1) != errorType {
			return c, false
		}
		c.hasErr = true
	case 1:
	default:
		return c, false
	}
	switch t.Out(0) {
	case stringType:
	case stringSliceType:
		c.multi = true
	default:
		return c, false
	}
	return c, true
}

func computeRef(values []string) (string, bool) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
			return strings.TrimSpace(v[1 : len(v)-1]), true
		}
	}
	return "", false
}

func resolveCompute(owner string, ref string, descriptor reflect.Type, reg *ComputeRegistry) (*computeFunc, error) {
	if ref == "" {
		return nil, errors.Definition(owner, "empty compute reference")
	}
	if !strings.Contains(ref, ".") {
		if descriptor == nil {
			return nil, errors.Definition(owner, "compute method %q has no descriptor type", ref)
		}
		m, found := reflect.PointerTo(descriptor).MethodByName(ref)
		if !found {
			return nil, errors.Definition(owner, "compute method %q not found on %s", ref, descriptor)
		}
		c, ok := shape(m.Type, 1)
		if !ok {
			return nil, errors.Definition(owner, "compute method %q has unsupported signature %s", ref, m.Type)
		}
		c.ref, c.method, c.owner = ref, ref, descriptor
		return &c, nil
	}

	var found []computeFunc
	for _, fn := range reg.Lookup(ref) {
		v := reflect.ValueOf(fn)
		if !v.IsValid() || (v.Kind() == reflect.Func && v.IsNil()) {
			continue
		}
		if c, ok := shape(v.Type(), 0); ok {
			c.ref, c.fn = ref, v
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return nil, errors.Definition(owner, "no compute function registered as %q", ref)
	case 1:
		return &found[0], nil
	default:
		return nil, errors.Definition(owner, "%d compute functions registered as %q", len(found), ref)
	}
}

func compileHeaders(owner string, defs []HeaderRuleDef, descriptor reflect.Type, reg *ComputeRegistry) ([]*HeaderRule, error) {
	seen := make(map[string]bool, len(defs))
	rules := make([]*HeaderRule, 0, len(defs))
	for _, d := range defs {
		name := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(d.Name))
		if name == "" {
			return nil, errors.Definition(owner, "header rule without a name")
		}
		if seen[name] {
			return nil, errors.Definition(owner, "header %q declared more than once", name)
		}
		seen[name] = true

		rule := &HeaderRule{name: name, required: d.Required}
		if ref, ok := computeRef(d.Values); ok {
			if len(d.Values) != 1 {
				return nil, errors.Definition(owner, "header %q mixes a compute function with other values", name)
			}
			fn, err := resolveCompute(fmt.Sprintf("%s header %s", owner, name), ref, descriptor, reg)
			if err != nil {
				return nil, err
			}
			rule.compute = fn
		} else {
			for _, v := range d.Values {
				rule.values = append(rule.values, strings.TrimSpace(v))
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
