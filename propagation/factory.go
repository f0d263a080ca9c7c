package propagation

import (
	"net/http"
	"net/textproto"
)

// HeadersFactory rewrites the outbound headers of a call. Its result replaces
// the headers the client composed.
type HeadersFactory interface {
	Update(inbound, outbound http.Header) http.Header
}

// HeadersFactoryFunc adapts a function to HeadersFactory.
type HeadersFactoryFunc func(inbound, outbound http.Header) http.Header

// Update calls f.
func (f HeadersFactoryFunc) Update(inbound, outbound http.Header) http.Header {
	return f(inbound, outbound)
}

// DefaultFactory copies a fixed list of inbound headers onto the outbound
// ones. Headers already present outbound are kept.
type DefaultFactory struct {
	names []string
}

// NewDefaultFactory creates a factory propagating the named headers.
func NewDefaultFactory(names ...string) *DefaultFactory {
	canon := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			canon = append(canon, textproto.CanonicalMIMEHeaderKey(n))
		}
	}
	return &DefaultFactory{names: canon}
}

// Names returns the propagated header names.
func (f *DefaultFactory) Names() []string {
	return append([]string(nil), f.names...)
}

// Update implements HeadersFactory.
func (f *DefaultFactory) Update(inbound, outbound http.Header) http.Header {
	out := outbound.Clone()
	if out == nil {
		out = http.Header{}
	}
	for _, name := range f.names {
		if _, ok := out[name]; ok {
			continue
		}
		if vals := inbound.Values(name); len(vals) > 0 {
			out[name] = append([]string(nil), vals...)
		}
	}
	return out
}

var _ HeadersFactory = (*DefaultFactory)(nil)
