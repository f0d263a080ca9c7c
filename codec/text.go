package codec

import (
	"encoding"
	"fmt"
)

// Text is the text/plain codec.
type Text struct{}

// MediaType returns "text/plain".
func (Text) MediaType() string { return MediaText }

// Encode writes strings, byte slices, text marshalers and Stringers as is;
// other values use their fmt form.
func (Text) Encode(v any) ([]byte, error) {
	switch s := v.(type) {
	case string:
		return []byte(s), nil
	case []byte:
		return s, nil
	case encoding.TextMarshaler:
		return s.MarshalText()
	case fmt.Stringer:
		return []byte(s.String()), nil
	}
	return []byte(fmt.Sprint(v)), nil
}

// Decode fills a *string, a *[]byte or an encoding.TextUnmarshaler.
func (Text) Decode(data []byte, v any) error {
	switch dst := v.(type) {
	case *string:
		*dst = string(data)
	case *[]byte:
		*dst = append((*dst)[:0], data...)
	case encoding.TextUnmarshaler:
		return dst.UnmarshalText(data)
	default:
		return fmt.Errorf("codec: cannot decode text into %T", v)
	}
	return nil
}

// Octet is the application/octet-stream codec. It only moves bytes.
type Octet struct{}

// MediaType returns "application/octet-stream".
func (Octet) MediaType() string { return MediaOctet }

// Encode accepts only []byte.
func (Octet) Encode(v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, fmt.Errorf("codec: octet-stream body must be []byte, got %T", v)
}

// Decode copies data into a *[]byte.
func (Octet) Decode(data []byte, v any) error {
	dst, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("codec: cannot decode octet-stream into %T", v)
	}
	*dst = append((*dst)[:0], data...)
	return nil
}
