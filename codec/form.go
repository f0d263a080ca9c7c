package codec

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/gorilla/schema"
)

// FormTag is the struct tag naming form fields.
const FormTag = "form"

// Form is the application/x-www-form-urlencoded codec. Structs are mapped
// through gorilla/schema using the "form" tag; url.Values and
// map[string][]string pass through.
type Form struct {
	enc *schema.Encoder
	dec *schema.Decoder
}

// NewForm creates a form codec.
func NewForm() *Form {
	enc := schema.NewEncoder()
	enc.SetAliasTag(FormTag)
	dec := schema.NewDecoder()
	dec.SetAliasTag(FormTag)
	dec.IgnoreUnknownKeys(true)
	return &Form{enc: enc, dec: dec}
}

// MediaType returns "application/x-www-form-urlencoded".
func (f *Form) MediaType() string { return MediaForm }

// Values converts v into url.Values.
func (f *Form) Values(v any) (url.Values, error) {
	switch src := v.(type) {
	case url.Values:
		return src, nil
	case map[string][]string:
		return url.Values(src), nil
	case map[string]string:
		out := make(url.Values, len(src))
		for k, s := range src {
			out.Set(k, s)
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("codec: cannot form-encode %T", v)
	}
	out := url.Values{}
	if err := f.enc.Encode(rv.Interface(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Encode form-encodes v; see Values for the accepted types.
func (f *Form) Encode(v any) ([]byte, error) {
	vals, err := f.Values(v)
	if err != nil {
		return nil, err
	}
	return []byte(vals.Encode()), nil
}

// Decode parses a form body into *url.Values, *map[string][]string or a
// struct pointer.
func (f *Form) Decode(data []byte, v any) error {
	vals, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	switch dst := v.(type) {
	case *url.Values:
		*dst = vals
		return nil
	case *map[string][]string:
		*dst = vals
		return nil
	}
	return f.dec.Decode(v, vals)
}
