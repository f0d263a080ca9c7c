package codec

import (
	"fmt"
	"io"
	"strings"
)

// Registry resolves codecs by media type. The zero value is empty; use
// Default for the standard set.
type Registry struct {
	codecs []Codec
}

var defaultRegistry = NewRegistry(JSON{}, YAML{}, NewForm(), Text{}, Octet{})

// Default returns the registry holding JSON, YAML, form, text and octet codecs.
func Default() *Registry { return defaultRegistry }

// NewRegistry creates a registry. Earlier codecs win on conflicts.
func NewRegistry(codecs ...Codec) *Registry {
	return &Registry{codecs: append([]Codec(nil), codecs...)}
}

// With returns a registry where the given codecs take precedence over r's.
func (r *Registry) With(codecs ...Codec) *Registry {
	if len(codecs) == 0 {
		return r
	}
	out := make([]Codec, 0, len(codecs)+len(r.codecs))
	out = append(out, codecs...)
	out = append(out, r.codecs...)
	return &Registry{codecs: out}
}

// Lookup finds the codec for a media type. Resolution order: exact type or
// alias, structured suffix (+json, +yaml), type wildcard ("text/*"), then the
// first registered codec for "*/*".
func (r *Registry) Lookup(mediaType string) (Codec, bool) {
	if r == nil || len(r.codecs) == 0 {
		return nil, false
	}
	mt := Normalize(mediaType)
	if mt == MediaWildcard {
		return r.codecs[0], true
	}

	for _, c := range r.codecs {
		if matches(c, mt) {
			return c, true
		}
	}
	if i := strings.LastIndexByte(mt, '+'); i >= 0 {
		suffix := mt[i+1:]
		for _, c := range r.codecs {
			if strings.HasSuffix(c.MediaType(), "/"+suffix) {
				return c, true
			}
		}
	}
	if major, minor, ok := strings.Cut(mt, "/"); ok && minor == "*" {
		for _, c := range r.codecs {
			if strings.HasPrefix(c.MediaType(), major+"/") {
				return c, true
			}
		}
	}
	return nil, false
}

// Encode turns a body value into bytes for the given media type. Raw bodies
// ([]byte, string, io.Reader) are sent as-is. The returned media type is the
// codec's concrete type, useful when the request declared a wildcard.
func (r *Registry) Encode(mediaType string, v any) ([]byte, string, error) {
	switch b := v.(type) {
	case []byte:
		return b, mediaType, nil
	case string:
		return []byte(b), mediaType, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		return data, mediaType, err
	}
	c, ok := r.Lookup(mediaType)
	if !ok {
		return nil, "", fmt.Errorf("codec: no codec for %q", mediaType)
	}
	data, err := c.Encode(v)
	if err != nil {
		return nil, "", err
	}
	return data, c.MediaType(), nil
}

// Decode reads data into v. *[]byte and *string receive the raw body
// whatever the media type; an empty body leaves v untouched.
func (r *Registry) Decode(mediaType string, data []byte, v any) error {
	switch dst := v.(type) {
	case *[]byte:
		*dst = append((*dst)[:0], data...)
		return nil
	case *string:
		*dst = string(data)
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	c, ok := r.Lookup(mediaType)
	if !ok {
		return fmt.Errorf("codec: no codec for %q", mediaType)
	}
	return c.Decode(data, v)
}

func matches(c Codec, mt string) bool {
	if c.MediaType() == mt {
		return true
	}
	if a, ok := c.(Aliases); ok {
		for _, alias := range a.Aliases() {
			if alias == mt {
				return true
			}
		}
	}
	return false
}
