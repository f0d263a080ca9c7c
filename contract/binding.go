package contract

import (
	"reflect"
	"strings"

	"github.com/kbukum/restproxy/errors"
)

// Binding connects a method argument or bean field to a part of the request.
type Binding struct {
	Role Role
	// Name is the placeholder, header, cookie, query, matrix or form name.
	Name string
	Type reflect.Type
	// Index is the argument position for top-level bindings.
	Index int
	// Field is the field index path for bindings inside a bean.
	Field []int
	// Bean holds the nested bindings of a RoleBean binding.
	Bean *Bean
}

// Bean is a struct type whose tagged fields are bindings.
type Bean struct {
	Type     reflect.Type
	Bindings []*Binding
}

var beanTags = []Role{RolePath, RoleHeader, RoleBean, RoleCookie, RoleQuery, RoleMatrix, RoleForm}

func pickAnnotation(anns []Annotation) Annotation {
	best := Annotation{Role: RoleBody}
	for _, a := range anns {
		if a.Role < best.Role {
			best = a
		}
	}
	return best
}

func compileParam(owner string, p ParamDef) (*Binding, error) {
	a := pickAnnotation(p.Annotations)
	b := &Binding{Role: a.Role, Name: strings.TrimSpace(a.Name), Type: p.Type, Index: p.Index}
	if a.Role.Named() && b.Name == "" {
		return nil, errors.Definition(owner, "%s parameter %d has no name", a.Role, p.Index)
	}
	if a.Role == RoleBean {
		bean, err := compileBean(owner, p.Type, map[reflect.Type]bool{})
		if err != nil {
			return nil, err
		}
		b.Bean = bean
	}
	return b, nil
}

func compileBean(owner string, t reflect.Type, visiting map[reflect.Type]bool) (*Bean, error) {
	st := t
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, errors.Definition(owner, "bean type %s is not a struct", t)
	}
	if visiting[st] {
		return nil, errors.Definition(owner, "bean type %s contains itself", st)
	}
	visiting[st] = true
	defer delete(visiting, st)

	bean := &Bean{Type: st}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if _, ok := f.Tag.Lookup("body"); ok {
			return nil, errors.Definition(owner, "bean field %s.%s cannot be a body", st.Name(), f.Name)
		}
		var anns []Annotation
		for _, role := range beanTags {
			if name, ok := f.Tag.Lookup(role.String()); ok {
				anns = append(anns, Annotation{Role: role, Name: name})
			}
		}
		if len(anns) == 0 {
			continue
		}
		if !f.IsExported() {
			return nil, errors.Definition(owner, "bean field %s.%s is not exported", st.Name(), f.Name)
		}
		a := pickAnnotation(anns)
		b := &Binding{Role: a.Role, Name: strings.TrimSpace(a.Name), Type: f.Type, Field: f.Index}
		if a.Role.Named() && b.Name == "" {
			return nil, errors.Definition(owner, "bean field %s.%s has an empty %s name", st.Name(), f.Name, a.Role)
		}
		if a.Role == RoleBean {
			nested, err := compileBean(owner, f.Type, visiting)
			if err != nil {
				return nil, err
			}
			b.Bean = nested
		}
		bean.Bindings = append(bean.Bindings, b)
	}
	return bean, nil
}

// Leaves returns every non-bean binding, descending into beans.
func Leaves(bindings []*Binding) []*Binding {
	var out []*Binding
	for _, b := range bindings {
		if b.Bean != nil {
			out = append(out, Leaves(b.Bean.Bindings)...)
			continue
		}
		out = append(out, b)
	}
	return out
}

// Walk calls fn for every leaf binding with its value for one call. The
// leaves of a bean that is a nil pointer are reported with a nil value.
func Walk(bindings []*Binding, args []any, fn func(b *Binding, v any) error) error {
	for _, b := range bindings {
		var v any
		if b.Index < len(args) {
			v = args[b.Index]
		}
		if err := walkValue(b, reflect.ValueOf(v), fn); err != nil {
			return err
		}
	}
	return nil
}

func walkValue(b *Binding, rv reflect.Value, fn func(*Binding, any) error) error {
	if b.Bean == nil {
		var v any
		if rv.IsValid() {
			v = rv.Interface()
		}
		return fn(b, v)
	}
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return walkNil(b.Bean.Bindings, fn)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return walkNil(b.Bean.Bindings, fn)
	}
	for _, c := range b.Bean.Bindings {
		if err := walkValue(c, rv.FieldByIndex(c.Field), fn); err != nil {
			return err
		}
	}
	return nil
}

func walkNil(bindings []*Binding, fn func(*Binding, any) error) error {
	for _, leaf := range Leaves(bindings) {
		if err := fn(leaf, nil); err != nil {
			return err
		}
	}
	return nil
}
