package converter

import (
	"reflect"

	"github.com/kbukum/restproxy/errors"
)

// Registry is an immutable ordered list of providers.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry; earlier providers win.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: append([]Provider(nil), providers...)}
}

// With returns a registry where the given providers are consulted before r's.
func (r *Registry) With(providers ...Provider) *Registry {
	if len(providers) == 0 {
		return r
	}
	var inherited []Provider
	if r != nil {
		inherited = r.providers
	}
	out := make([]Provider, 0, len(providers)+len(inherited))
	out = append(out, providers...)
	out = append(out, inherited...)
	return &Registry{providers: out}
}

// Len returns the number of providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.providers)
}

// Lookup returns the first provider's converter for t, or Default.
func (r *Registry) Lookup(t reflect.Type) Converter {
	if r != nil {
		for _, p := range r.providers {
			if c := p.Converter(t); c != nil {
				return c
			}
		}
	}
	return Default
}

// ToString converts a single value.
func (r *Registry) ToString(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	return r.Lookup(reflect.TypeOf(v)).ToString(v)
}

// Strings converts a parameter value into its wire values. Nil values yield
// none; pointers are followed; slices and arrays (other than []byte) expand
// to one value per element. A type with its own converter is never expanded.
func (r *Registry) Strings(name string, v any) ([]string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, nil
	}
	return r.strings(name, rv, true)
}

func (r *Registry) strings(name string, rv reflect.Value, expand bool) ([]string, error) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		if r.hasConverter(rv.Type()) {
			break
		}
		rv = rv.Elem()
	}

	if expand && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) &&
		rv.Type().Elem().Kind() != reflect.Uint8 && !r.hasConverter(rv.Type()) {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			vals, err := r.strings(name, rv.Index(i), false)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil
	}

	s, err := r.Lookup(rv.Type()).ToString(rv.Interface())
	if err != nil {
		return nil, errors.Conversion(name, err)
	}
	return []string{s}, nil
}

func (r *Registry) hasConverter(t reflect.Type) bool {
	if r == nil {
		return false
	}
	for _, p := range r.providers {
		if p.Converter(t) != nil {
			return true
		}
	}
	return false
}
