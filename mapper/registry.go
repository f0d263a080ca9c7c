package mapper

import (
	"sort"

	"github.com/kbukum/restproxy/transport"
)

// Registry is an immutable list of mappers in registration order.
type Registry struct {
	mappers []Mapper
}

// NewRegistry creates a registry. Nil mappers are ignored.
func NewRegistry(mappers ...Mapper) *Registry {
	r := &Registry{}
	for _, m := range mappers {
		if m != nil {
			r.mappers = append(r.mappers, m)
		}
	}
	return r
}

// With returns a registry holding mappers followed by r's. On equal
// priority the given mappers are consulted before the inherited ones.
// A second default mapper is not added.
func (r *Registry) With(mappers ...Mapper) *Registry {
	if len(mappers) == 0 {
		return r
	}
	hasDefault := r.HasDefault()
	out := make([]Mapper, 0, len(mappers)+r.Len())
	for _, m := range mappers {
		if m == nil || (hasDefault && IsDefault(m)) {
			continue
		}
		out = append(out, m)
	}
	if r != nil {
		out = append(out, r.mappers...)
	}
	return &Registry{mappers: out}
}

// Len returns the number of registered mappers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.mappers)
}

// HasDefault reports whether the catch-all mapper is registered.
func (r *Registry) HasDefault() bool {
	if r == nil {
		return false
	}
	for _, m := range r.mappers {
		if IsDefault(m) {
			return true
		}
	}
	return false
}

// Handling returns the mappers that handle the response, sorted by priority.
func (r *Registry) Handling(resp *transport.Response) []Mapper {
	if r == nil || resp == nil {
		return nil
	}
	var out []Mapper
	for _, m := range r.mappers {
		if m.Handles(resp.StatusCode, resp.Header) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

// Evaluate returns the first non-nil error produced by a handling mapper.
func (r *Registry) Evaluate(resp *transport.Response) error {
	for _, m := range r.Handling(resp) {
		if err := m.ToError(resp); err != nil {
			return err
		}
	}
	return nil
}
