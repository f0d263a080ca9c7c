package client

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/kbukum/restproxy/contract"
	"github.com/kbukum/restproxy/dispatch"
	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/transport"
)

var (
	contextType  = reflect.TypeFor[context.Context]()
	errorType    = reflect.TypeFor[error]()
	responseType = reflect.TypeFor[*transport.Response]()
	emptyType    = reflect.TypeFor[struct{}]()
)

type parsed struct {
	once sync.Once
	def  *contract.InterfaceDef
	err  error
}

var parseCache sync.Map // reflect.Type -> *parsed

// Parse reads the tags of descriptor type t, a struct or a pointer to one.
// The result is computed once per type and must not be modified.
func Parse(t reflect.Type) (*contract.InterfaceDef, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.Definition("", "descriptor must be a struct, got %v", t)
	}
	e, _ := parseCache.LoadOrStore(t, &parsed{})
	p := e.(*parsed)
	p.once.Do(func() { p.def, p.err = parse(t) })
	return p.def, p.err
}

func parse(t reflect.Type) (*contract.InterfaceDef, error) {
	def := &contract.InterfaceDef{Name: t.Name(), Type: t}
	if rf, ok := resourceField(t); ok {
		if n := strings.TrimSpace(rf.Tag.Get("name")); n != "" {
			def.Name = n
		}
		def.Path = rf.Tag.Get("path")
		def.Produces = splitList(rf.Tag.Get("produces"))
		def.Consumes = splitList(rf.Tag.Get("consumes"))
		headers, err := parseHeaders(def.Name, rf.Tag.Get("headers"))
		if err != nil {
			return nil, err
		}
		def.Headers = headers
	}

	inst := reflect.New(t).Interface()
	if f, ok := inst.(HeadersFactoryProvider); ok {
		def.Factory = f.ClientHeadersFactory()
	}
	if p, ok := inst.(ProvidersDeclarer); ok {
		def.Providers = p.Providers()
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Func || !f.IsExported() {
			continue
		}
		_, hasVerb := f.Tag.Lookup("method")
		_, hasPath := f.Tag.Lookup("path")
		if !hasVerb && !hasPath {
			continue
		}
		m, err := parseMethod(def.Name, f)
		if err != nil {
			return nil, err
		}
		def.Methods = append(def.Methods, m)
	}
	return def, nil
}

func parseMethod(iface string, f reflect.StructField) (contract.MethodDef, error) {
	owner := iface + "::" + f.Name
	m := contract.MethodDef{
		Name:     f.Name,
		Verbs:    splitList(strings.ToUpper(f.Tag.Get("method"))),
		Path:     f.Tag.Get("path"),
		Produces: splitList(f.Tag.Get("produces")),
		Consumes: splitList(f.Tag.Get("consumes")),
	}
	var err error
	if m.Headers, err = parseHeaders(owner, f.Tag.Get("headers")); err != nil {
		return m, err
	}

	ft := f.Type
	if ft.IsVariadic() {
		return m, errors.Definition(owner, "variadic methods are not supported")
	}
	first := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		first = 1
	}
	var args []reflect.Type
	for i := first; i < ft.NumIn(); i++ {
		if ft.In(i) == contextType {
			return m, errors.Definition(owner, "context.Context must be the first argument")
		}
		args = append(args, ft.In(i))
	}

	slots, err := parseParams(owner, f.Tag.Get("params"), len(args))
	if err != nil {
		return m, err
	}
	for i, t := range args {
		m.Params = append(m.Params, contract.ParamDef{Index: i, Type: t, Annotations: slots[i]})
	}

	if m.Result, m.SubType, err = parseResult(owner, ft); err != nil {
		return m, err
	}
	return m, nil
}

// parseResult derives the return shape of a func type.
func parseResult(owner string, ft reflect.Type) (contract.Result, reflect.Type, error) {
	bad := func() (contract.Result, reflect.Type, error) {
		return contract.Result{}, nil, errors.Definition(owner,
			"unsupported result %s: want error, (T, error), *dispatch.Future[T] or a sub-resource", ft)
	}
	switch ft.NumOut() {
	case 1:
		out := ft.Out(0)
		switch {
		case out == errorType:
			return contract.Result{Kind: contract.ResultNone}, nil, nil
		case dispatch.IsFuture(out):
			elem, _ := dispatch.FutureElem(out)
			res := valueResult(elem)
			res.Async, res.Future = true, out
			return res, nil, nil
		case isDescriptor(out):
			return contract.Result{Kind: contract.ResultSubResource, Type: out}, out.Elem(), nil
		}
	case 2:
		out := ft.Out(0)
		if ft.Out(1) != errorType {
			return bad()
		}
		if isDescriptor(out) {
			return contract.Result{Kind: contract.ResultSubResource, Type: out}, out.Elem(), nil
		}
		if out == errorType {
			return bad()
		}
		return valueResult(out), nil, nil
	}
	return bad()
}

func valueResult(t reflect.Type) contract.Result {
	switch t {
	case responseType:
		return contract.Result{Kind: contract.ResultRaw, Type: t}
	case emptyType:
		return contract.Result{Kind: contract.ResultNone, Type: t}
	}
	return contract.Result{Kind: contract.ResultValue, Type: t}
}

// parseParams splits a params tag into one annotation list per argument.
func parseParams(owner, tag string, n int) ([][]contract.Annotation, error) {
	slots := make([][]contract.Annotation, n)
	if strings.TrimSpace(tag) == "" {
		return slots, nil
	}
	raw := strings.Split(tag, ",")
	if len(raw) > n {
		return nil, errors.Definition(owner, "params declares %d slots for %d arguments", len(raw), n)
	}
	for i, slot := range raw {
		for _, part := range strings.Split(slot, "|") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			role, name, _ := strings.Cut(part, "=")
			r, ok := contract.ParseRole(role)
			if !ok {
				return nil, errors.Definition(owner, "unknown parameter role %q", role)
			}
			if !r.Named() && strings.TrimSpace(name) != "" {
				return nil, errors.Definition(owner, "%s parameter %d does not take a name", r, i)
			}
			slots[i] = append(slots[i], contract.Annotation{Role: r, Name: strings.TrimSpace(name)})
		}
	}
	return slots, nil
}

// parseHeaders reads "Name: v1, v2; Other?: {fn}".
func parseHeaders(owner, tag string) ([]contract.HeaderRuleDef, error) {
	var out []contract.HeaderRuleDef
	for _, rule := range strings.Split(tag, ";") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		name, values, ok := strings.Cut(rule, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || name == "?" {
			return nil, errors.Definition(owner, "malformed header rule %q", rule)
		}
		required := true
		if strings.HasSuffix(name, "?") {
			required = false
			name = strings.TrimSpace(strings.TrimSuffix(name, "?"))
		}
		out = append(out, contract.HeaderRuleDef{Name: name, Values: splitList(values), Required: required})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
