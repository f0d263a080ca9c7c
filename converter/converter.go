package converter

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Converter stringifies one value.
type Converter interface {
	ToString(v any) (string, error)
}

// Provider returns a Converter for types it handles, or nil.
type Provider interface {
	Converter(t reflect.Type) Converter
}

// Func adapts a function to Converter.
type Func func(v any) (string, error)

func (f Func) ToString(v any) (string, error) { return f(v) }

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(t reflect.Type) Converter

func (f ProviderFunc) Converter(t reflect.Type) Converter { return f(t) }

// For returns a Provider handling exactly type T.
//
//	converter.For(func(d Day) (string, error) { return d.Format("2006-01-02"), nil })
func For[T any](fn func(T) (string, error)) Provider {
	target := reflect.TypeFor[T]()
	conv := Func(func(v any) (string, error) {
		tv, ok := v.(T)
		if !ok {
			return "", fmt.Errorf("converter: expected %s, got %T", target, v)
		}
		return fn(tv)
	})
	return ProviderFunc(func(t reflect.Type) Converter {
		if t == target {
			return conv
		}
		return nil
	})
}

// Default is the fallback converter.
var Default Converter = Func(defaultString)

func defaultString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		return string(b), err
	case fmt.Stringer:
		return x.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.String:
		return rv.String(), nil
	}
	return fmt.Sprint(v), nil
}
