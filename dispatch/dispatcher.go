package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/restproxy/codec"
	"github.com/kbukum/restproxy/contract"
	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/observability"
	"github.com/kbukum/restproxy/propagation"
	"github.com/kbukum/restproxy/transport"
)

var errorType = reflect.TypeFor[error]()

// SubResource is returned for sub-resource locators.
type SubResource struct {
	// Target is the resolved target the child client starts from.
	Target transport.Target
	// Interface is the bound child interface.
	Interface *contract.Interface
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithRecorder sets the call recorder.
func WithRecorder(r observability.Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// Dispatcher sends calls through a transport. It holds no per-call state.
type Dispatcher struct {
	transport transport.Transport
	log       *logger.Logger
	recorder  observability.Recorder
}

// New creates a dispatcher.
func New(t transport.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: t,
		log:       logger.GetGlobalLogger().WithComponent("dispatch"),
		recorder:  observability.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Transport returns the dispatcher's transport.
func (d *Dispatcher) Transport() transport.Transport { return d.transport }

// Dispatch performs one call of m. target must already carry the interface
// path; args are the call arguments without the leading context.
//
// Sync methods return the decoded value, the *transport.Response or nil.
// Async methods return the *Future immediately. Sub-resource locators return
// a *SubResource.
func (d *Dispatcher) Dispatch(ctx context.Context, target transport.Target, m *contract.Method, args []any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := collect(m, args)
	if err != nil {
		return nil, err
	}

	target = target.Path(m.Path())
	for _, kv := range p.path {
		target = target.Resolve(kv.name, kv.value)
	}
	if left := transport.Placeholders(target.Template()); len(left) > 0 {
		return nil, errors.Conversion("path parameter "+left[0], fmt.Errorf("placeholder left unresolved"))
	}
	if m.IsSubResource() {
		return &SubResource{Target: target, Interface: m.Child()}, nil
	}
	for _, kv := range p.matrix {
		target = target.Matrix(kv.name, kv.values...)
	}
	for _, kv := range p.query {
		target = target.Query(kv.name, kv.values...)
	}

	req, err := d.buildRequest(ctx, target, m, p)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx = logger.ContextWithInvocationID(ctx, id)
	log := d.log.WithContext(ctx).WithFields(logger.CallFields(m.Interface().Name(), m.Name(), req.Method, req.URL))

	ctx, finish := d.recorder.Start(ctx, observability.Call{
		Interface:    m.Interface().Name(),
		Method:       m.Name(),
		HTTPMethod:   req.Method,
		URL:          req.URL,
		InvocationID: id,
		Async:        m.Result().Async,
	})
	observability.InjectHeaders(ctx, req.Header)

	if m.Result().Async {
		return d.dispatchAsync(ctx, m, req, log, finish), nil
	}

	start := time.Now()
	log.Debug("dispatching call")
	resp, err := d.transport.Do(ctx, req)
	if err != nil {
		finish(0, err)
		log.Warn("call failed", logger.MergeWithDuration(logger.MergeWithError(nil, err), time.Since(start)))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			finish(resp.StatusCode, errors.Internal(fmt.Errorf("panic evaluating response: %v", r)))
			panic(r)
		}
	}()
	v, err := d.evaluate(m, resp)
	finish(resp.StatusCode, err)
	d.logResult(log, resp.StatusCode, err, time.Since(start))
	return v, err
}

func (d *Dispatcher) dispatchAsync(ctx context.Context, m *contract.Method, req *transport.Request, log *logger.Logger, finish observability.Finish) any {
	fut, c := newFuture(m.Result().Future)
	ctx, cancel := context.WithCancel(ctx)
	c.bind(cancel)

	start := time.Now()
	log.Debug("dispatching async call")
	d.transport.DoAsync(ctx, req, func(resp *transport.Response, err error) {
		defer cancel()
		if c.Canceled() {
			finish(0, context.Canceled)
			log.Debug("async call cancelled")
			return
		}
		if err != nil {
			finish(0, err)
			log.Warn("async call failed", logger.MergeWithError(nil, err))
			c.complete(nil, err)
			return
		}
		defer func() {
			if r := recover(); r != nil {
				perr := errors.Internal(fmt.Errorf("panic evaluating response: %v", r))
				finish(resp.StatusCode, perr)
				log.Error("async evaluation panicked", logger.MergeWithError(nil, perr))
				c.complete(nil, perr)
			}
		}()
		v, err := d.evaluate(m, resp)
		finish(resp.StatusCode, err)
		d.logResult(log, resp.StatusCode, err, time.Since(start))
		c.complete(v, err)
	})
	return fut
}

func (d *Dispatcher) logResult(log *logger.Logger, status int, err error, elapsed time.Duration) {
	fields := logger.MergeWithDuration(logger.Fields(logger.FieldStatus, status), elapsed)
	if err != nil {
		log.Debug("call mapped to error", logger.MergeWithError(fields, err))
		return
	}
	log.Debug("call completed", fields)
}

func (d *Dispatcher) buildRequest(ctx context.Context, target transport.Target, m *contract.Method, p *parts) (*transport.Request, error) {
	iface := m.Interface()
	h, err := composeHeaders(ctx, m, p.header)
	if err != nil {
		return nil, err
	}

	if h.Get("Accept") == "" {
		for _, mt := range m.Produces() {
			h.Add("Accept", mt)
		}
	}
	consumes := m.Consumes()
	if h.Get("Content-Type") == "" && !codec.IsWildcard(consumes[0]) {
		h.Set("Content-Type", consumes[0])
	}

	req := &transport.Request{Method: m.Verb(), URL: target.URL(), Header: h, Cookies: p.cookies}
	if !m.SendsBody() {
		return req, nil
	}

	switch {
	case len(p.form) > 0:
		req.Body = []byte(p.form.Encode())
		h.Set("Content-Type", codec.MediaForm)
	case p.body != nil:
		mediaType := h.Get("Content-Type")
		if mediaType == "" {
			mediaType = consumes[0]
		}
		data, concrete, err := iface.Providers().Codecs.Encode(mediaType, p.body)
		if err != nil {
			return nil, errors.Conversion("body", err)
		}
		req.Body = data
		if h.Get("Content-Type") == "" && concrete != "" && !codec.IsWildcard(concrete) {
			h.Set("Content-Type", concrete)
		}
	}
	return req, nil
}

// composeHeaders applies interface rules, method rules and call-site
// headers in that order, each replacing same-named headers of the previous.
// A headers factory replaces the result.
func composeHeaders(ctx context.Context, m *contract.Method, callSite http.Header) (http.Header, error) {
	h := http.Header{}
	for _, rules := range [][]*contract.HeaderRule{m.Interface().HeaderRules(), m.HeaderRules()} {
		for _, r := range rules {
			vals, err := r.Resolve()
			if err != nil {
				return nil, err
			}
			if len(vals) > 0 {
				h[r.Name()] = vals
			}
		}
	}
	for name, vals := range callSite {
		h[name] = vals
	}
	if f := m.Interface().Factory(); f != nil {
		out := f.Update(propagation.Inbound(ctx), h)
		if out == nil {
			out = http.Header{}
		}
		return out, nil
	}
	return h, nil
}

func (d *Dispatcher) evaluate(m *contract.Method, resp *transport.Response) (any, error) {
	providers := m.Interface().Providers()
	resp = resp.WithCodecs(providers.Codecs)
	if err := providers.Mappers.Evaluate(resp); err != nil {
		return nil, declared(m, resp.StatusCode, err)
	}

	res := m.Result()
	switch res.Kind {
	case contract.ResultRaw:
		return resp, nil
	case contract.ResultValue:
		ptr := reflect.New(res.Type)
		if err := resp.Decode(ptr.Interface()); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	default:
		return nil, nil
	}
}

// declared wraps a mapped error whose type the method does not declare.
func declared(m *contract.Method, status int, err error) error {
	kinds := m.Errors()
	if len(kinds) == 0 || errors.IsAppError(err) {
		return err
	}
	for _, k := range kinds {
		if k.Kind() != reflect.Interface && !k.Implements(errorType) {
			continue
		}
		if stderrors.As(err, reflect.New(k).Interface()) {
			return err
		}
	}
	return errors.WrapMapped(status, err)
}

type pathParam struct {
	name  string
	value string
}

type multiParam struct {
	name   string
	values []string
}

// parts are the request pieces taken from the call arguments.
type parts struct {
	path    []pathParam
	query   []multiParam
	matrix  []multiParam
	header  http.Header
	cookies []*http.Cookie
	form    url.Values
	body    any
}

func collect(m *contract.Method, args []any) (*parts, error) {
	conv := m.Interface().Providers().Converters
	p := &parts{header: http.Header{}, form: url.Values{}}
	err := contract.Walk(m.Bindings(), args, func(b *contract.Binding, v any) error {
		if b.Role == contract.RoleBody {
			if !isNil(v) {
				p.body = v
			}
			return nil
		}
		vals, err := conv.Strings(b.Name, v)
		if err != nil {
			return err
		}
		switch b.Role {
		case contract.RolePath:
			if len(vals) == 0 {
				return errors.Conversion("path parameter "+b.Name, fmt.Errorf("value is nil"))
			}
			p.path = append(p.path, pathParam{name: b.Name, value: strings.Join(vals, ",")})
		case contract.RoleQuery:
			if len(vals) > 0 {
				p.query = append(p.query, multiParam{name: b.Name, values: vals})
			}
		case contract.RoleMatrix:
			if len(vals) > 0 {
				p.matrix = append(p.matrix, multiParam{name: b.Name, values: vals})
			}
		case contract.RoleHeader:
			if len(vals) > 0 {
				p.header[http.CanonicalHeaderKey(b.Name)] = vals
			}
		case contract.RoleCookie:
			if len(vals) > 0 {
				p.cookies = append(p.cookies, &http.Cookie{Name: b.Name, Value: vals[0]})
			}
		case contract.RoleForm:
			for _, v := range vals {
				p.form.Add(b.Name, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
