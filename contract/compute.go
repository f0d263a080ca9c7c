package contract

import (
	"sort"
	"sync"
)

// ComputeRegistry maps dotted names such as "compute.RequestID" to header
// compute functions. A name may be registered more than once; resolution
// fails unless exactly one registration has a valid shape.
type ComputeRegistry struct {
	mu    sync.RWMutex
	funcs map[string][]any
}

// NewComputeRegistry creates an empty registry.
func NewComputeRegistry() *ComputeRegistry {
	return &ComputeRegistry{funcs: make(map[string][]any)}
}

// Register adds fn under name and returns the registry.
func (r *ComputeRegistry) Register(name string, fn any) *ComputeRegistry {
	r.mu.Lock()
	r.funcs[name] = append(r.funcs[name], fn)
	r.mu.Unlock()
	return r
}

// Lookup returns every function registered under name.
func (r *ComputeRegistry) Lookup(name string) []any {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]any(nil), r.funcs[name]...)
}

// Names returns the registered names, sorted.
func (r *ComputeRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new registry holding the registrations of r and others.
func (r *ComputeRegistry) Merge(others ...*ComputeRegistry) *ComputeRegistry {
	out := NewComputeRegistry()
	for _, src := range append([]*ComputeRegistry{r}, others...) {
		if src == nil {
			continue
		}
		src.mu.RLock()
		for n, fns := range src.funcs {
			out.funcs[n] = append(out.funcs[n], fns...)
		}
		src.mu.RUnlock()
	}
	return out
}
