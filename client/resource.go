package client

import (
	"reflect"

	"github.com/kbukum/restproxy/propagation"
)

// Resource marks a descriptor struct. Embed it and put the interface tags on
// the embedded field.
type Resource struct{}

var resourceType = reflect.TypeFor[Resource]()

// HeadersFactoryProvider is implemented by descriptors that rewrite the
// outbound headers of every call.
type HeadersFactoryProvider interface {
	ClientHeadersFactory() propagation.HeadersFactory
}

// ProvidersDeclarer is implemented by descriptors that carry their own
// mappers, converter providers and codecs.
type ProvidersDeclarer interface {
	Providers() []any
}

// resourceField returns the embedded Resource field of a descriptor type.
func resourceField(t reflect.Type) (reflect.StructField, bool) {
	if t.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == resourceType {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// isDescriptor reports whether t is a pointer to a descriptor struct.
func isDescriptor(t reflect.Type) bool {
	if t.Kind() != reflect.Pointer {
		return false
	}
	_, ok := resourceField(t.Elem())
	return ok
}
