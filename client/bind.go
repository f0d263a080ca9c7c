package client

import (
	"context"
	"reflect"

	"github.com/kbukum/restproxy/contract"
	"github.com/kbukum/restproxy/dispatch"
	"github.com/kbukum/restproxy/transport"
)

// bindInstance sets every compiled method of iface on the descriptor struct
// v. target already carries the interface path.
func bindInstance(v reflect.Value, iface *contract.Interface, target transport.Target, d *dispatch.Dispatcher) {
	for _, m := range iface.Methods() {
		f := v.FieldByName(m.Name())
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		f.Set(reflect.MakeFunc(f.Type(), invoker(f.Type(), m, target, d)))
	}
}

func invoker(ft reflect.Type, m *contract.Method, target transport.Target, d *dispatch.Dispatcher) func([]reflect.Value) []reflect.Value {
	withCtx := ft.NumIn() > 0 && ft.In(0) == contextType
	res := m.Result()

	return func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if withCtx {
			if c, ok := in[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
			in = in[1:]
		}
		args := make([]any, len(in))
		for i, a := range in {
			args[i] = a.Interface()
		}

		out, err := d.Dispatch(ctx, target, m, args)

		switch {
		case res.Async:
			if err != nil {
				out = dispatch.Rejected(res.Future, err)
			}
			return []reflect.Value{reflect.ValueOf(out)}

		case res.Kind == contract.ResultSubResource:
			child := reflect.Zero(ft.Out(0))
			if err == nil {
				sub := out.(*dispatch.SubResource)
				cv := reflect.New(ft.Out(0).Elem())
				bindInstance(cv.Elem(), sub.Interface, sub.Target.Path(sub.Interface.Path()), d)
				child = cv
			}
			if ft.NumOut() == 1 {
				if err != nil {
					panic(err)
				}
				return []reflect.Value{child}
			}
			return []reflect.Value{child, errValue(err)}

		case ft.NumOut() == 1:
			return []reflect.Value{errValue(err)}

		default:
			return []reflect.Value{resultValue(out, ft.Out(0)), errValue(err)}
		}
	}
}

func resultValue(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != t && rv.Type().ConvertibleTo(t) {
		rv = rv.Convert(t)
	}
	return rv
}

func errValue(err error) reflect.Value {
	if err == nil {
		return reflect.Zero(errorType)
	}
	return reflect.ValueOf(&err).Elem()
}
