package dispatch

import (
	"context"
	stderrors "errors"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/restproxy/contract"
	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/mapper"
	"github.com/kbukum/restproxy/observability"
	"github.com/kbukum/restproxy/propagation"
	"github.com/kbukum/restproxy/transport"
)

type fakeTransport struct {
	mu    sync.Mutex
	reqs  []*transport.Request
	resp  *transport.Response
	err   error
	gate  chan struct{}
	async sync.WaitGroup
}

func (f *fakeTransport) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTransport) DoAsync(ctx context.Context, req *transport.Request, cb transport.Callback) {
	f.async.Add(1)
	go func() {
		defer f.async.Done()
		if f.gate != nil {
			<-f.gate
		}
		cb(f.Do(ctx, req))
	}()
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeTransport) last() *transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func jsonResp(status int, body string) *transport.Response {
	return transport.NewResponse(status, http.Header{"Content-Type": {"application/json"}}, []byte(body), nil)
}

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type descriptor struct{}

type childDescriptor struct{}

var (
	strT  = reflect.TypeFor[string]()
	userT = reflect.TypeFor[*user]()
)

func a(r contract.Role, name string) contract.Annotation {
	return contract.Annotation{Role: r, Name: name}
}

func p(i int, t reflect.Type, anns ...contract.Annotation) contract.ParamDef {
	return contract.ParamDef{Index: i, Type: t, Annotations: anns}
}

func build(t *testing.T, def *contract.InterfaceDef, mappers ...mapper.Mapper) *contract.Interface {
	t.Helper()
	if def.Type == nil {
		def.Type = reflect.TypeFor[descriptor]()
	}
	parse := func(rt reflect.Type) (*contract.InterfaceDef, error) {
		return &contract.InterfaceDef{Name: "Child", Type: rt, Methods: []contract.MethodDef{
			{Name: "List", Verbs: []string{"GET"}, Result: contract.Result{Kind: contract.ResultNone}},
		}}, nil
	}
	c, err := contract.Compile(def, contract.Options{Parse: parse})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return c.Bind(contract.Providers{Mappers: mapper.NewRegistry(append(mappers, mapper.Default())...)})
}

func method(t *testing.T, iface *contract.Interface, name string) *contract.Method {
	t.Helper()
	m, ok := iface.Method(name)
	if !ok {
		t.Fatalf("method %s not found", name)
	}
	return m
}

func newDispatcher(tr transport.Transport) *Dispatcher {
	return New(tr, WithLogger(logger.Nop()))
}

func target(iface *contract.Interface) transport.Target {
	return transport.NewTarget("http://api.local").Path(iface.Path())
}

func TestDispatch_BuildsRequest(t *testing.T) {
	iface := build(t, &contract.InterfaceDef{
		Name: "Users", Path: "/users", Produces: []string{"application/json"}, Consumes: []string{"application/json"},
		Methods: []contract.MethodDef{{
			Name: "Update", Verbs: []string{"PUT"}, Path: "/{id}",
			Params: []contract.ParamDef{
				p(0, strT, a(contract.RolePath, "id")),
				p(1, reflect.TypeFor[[]string](), a(contract.RoleQuery, "tag")),
				p(2, reflect.TypeFor[int](), a(contract.RoleMatrix, "v")),
				p(3, strT, a(contract.RoleCookie, "session")),
				p(4, strT, a(contract.RoleHeader, "X-Trace")),
				p(5, userT),
			},
			Result: contract.Result{Kind: contract.ResultValue, Type: userT},
		}},
	})
	tr := &fakeTransport{resp: jsonResp(200, `{"id":"u 1","name":"Ann"}`)}

	out, err := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Update"),
		[]any{"u 1", []string{"a", "b"}, 2, "s-1", "t-1", &user{Name: "Ann"}})
	if err != nil {
		t.Fatal(err)
	}
	if u := out.(*user); u.ID != "u 1" || u.Name != "Ann" {
		t.Errorf("unexpected result %+v", u)
	}

	req := tr.last()
	if req.Method != "PUT" || req.URL != "http://api.local/users/u%201;v=2?tag=a&tag=b" {
		t.Errorf("unexpected request line %s %s", req.Method, req.URL)
	}
	if req.Header.Get("X-Trace") != "t-1" || req.Header.Get("Accept") != "application/json" ||
		req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("unexpected headers %v", req.Header)
	}
	if len(req.Cookies) != 1 || req.Cookies[0].Value != "s-1" {
		t.Errorf("unexpected cookies %v", req.Cookies)
	}
	if string(req.Body) != `{"id":"","name":"Ann"}` {
		t.Errorf("unexpected body %s", req.Body)
	}
}

func TestDispatch_GetSendsNoBody(t *testing.T) {
	for _, verb := range []string{"GET", "DELETE", "HEAD"} {
		t.Run(verb, func(t *testing.T) {
			iface := build(t, &contract.InterfaceDef{Name: "A", Methods: []contract.MethodDef{{
				Name: "Call", Verbs: []string{verb}, Params: []contract.ParamDef{p(0, userT)},
				Result: contract.Result{Kind: contract.ResultNone},
			}}})
			tr := &fakeTransport{resp: jsonResp(204, "")}
			if _, err := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Call"), []any{&user{ID: "x"}}); err != nil {
				t.Fatal(err)
			}
			if tr.last().Body != nil {
				t.Errorf("%s must not send a body", verb)
			}
		})
	}
}

func TestDispatch_Form(t *testing.T) {
	iface := build(t, &contract.InterfaceDef{Name: "A", Consumes: []string{"application/json"}, Methods: []contract.MethodDef{{
		Name: "Login", Verbs: []string{"POST"},
		Params: []contract.ParamDef{p(0, strT, a(contract.RoleForm, "user")), p(1, reflect.TypeFor[[]int](), a(contract.RoleForm, "n"))},
		Result: contract.Result{Kind: contract.ResultNone},
	}}})
	tr := &fakeTransport{resp: jsonResp(200, "")}
	if _, err := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Login"), []any{"ann", []int{1, 2}}); err != nil {
		t.Fatal(err)
	}
	req := tr.last()
	if string(req.Body) != "n=1&n=2&user=ann" {
		t.Errorf("unexpected form body %q", req.Body)
	}
	if req.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
		t.Errorf("form must override content type, got %q", req.Header.Get("Content-Type"))
	}
}

func TestDispatch_HeaderPrecedence(t *testing.T) {
	def := func() *contract.InterfaceDef {
		return &contract.InterfaceDef{
			Name:    "H",
			Headers: []contract.HeaderRuleDef{{Name: "X-A", Values: []string{"a"}, Required: true}, {Name: "X-Only-Iface", Values: []string{"i"}}},
			Methods: []contract.MethodDef{{
				Name: "Call", Verbs: []string{"GET"},
				Headers: []contract.HeaderRuleDef{{Name: "X-A", Values: []string{"b"}, Required: true}},
				Params:  []contract.ParamDef{p(0, strT, a(contract.RoleHeader, "x-a"))},
				Result:  contract.Result{Kind: contract.ResultNone},
			}},
		}
	}

	tests := []struct {
		name string
		arg  any
		want string
	}{
		{"method beats interface", nil, "b"},
		{"call site beats method", "c", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iface := build(t, def())
			tr := &fakeTransport{resp: jsonResp(200, "")}
			if _, err := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Call"), []any{tt.arg}); err != nil {
				t.Fatal(err)
			}
			h := tr.last().Header
			if got := h.Values("X-A"); len(got) != 1 || got[0] != tt.want {
				t.Errorf("expected X-A=%s, got %v", tt.want, got)
			}
			if h.Get("X-Only-Iface") != "i" {
				t.Error("interface-only header lost")
			}
		})
	}

	t.Run("factory replaces", func(t *testing.T) {
		d := def()
		var seenOutbound http.Header
		d.Factory = propagation.HeadersFactoryFunc(func(inbound, outbound http.Header) http.Header {
			seenOutbound = outbound
			return http.Header{"X-From-Inbound": inbound.Values("X-In")}
		})
		iface := build(t, d)
		tr := &fakeTransport{resp: jsonResp(200, "")}
		ctx := propagation.WithInbound(context.Background(), http.Header{"X-In": {"in"}})
		if _, err := newDispatcher(tr).Dispatch(ctx, target(iface), method(t, iface, "Call"), []any{"c"}); err != nil {
			t.Fatal(err)
		}
		if seenOutbound.Get("X-A") != "c" {
			t.Errorf("factory should receive composed headers, got %v", seenOutbound)
		}
		h := tr.last().Header
		if h.Get("X-A") != "" || h.Get("X-Only-Iface") != "" || h.Get("X-From-Inbound") != "in" {
			t.Errorf("factory output must replace headers, got %v", h)
		}
	})
}

func TestDispatch_ConvertedHeaderMatchesLiteral(t *testing.T) {
	iface := build(t, &contract.InterfaceDef{Name: "H",
		Headers: []contract.HeaderRuleDef{{Name: "X-Lit", Values: []string{"42"}, Required: true}},
		Methods: []contract.MethodDef{{
			Name: "Call", Verbs: []string{"GET"},
			Params: []contract.ParamDef{p(0, reflect.TypeFor[int](), a(contract.RoleHeader, "X-Conv"))},
			Result: contract.Result{Kind: contract.ResultNone},
		}},
	})
	tr := &fakeTransport{resp: jsonResp(200, "")}
	if _, err := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Call"), []any{42}); err != nil {
		t.Fatal(err)
	}
	h := tr.last().Header
	if h.Get("X-Lit") != h.Get("X-Conv") {
		t.Errorf("literal %q and converted %q differ", h.Get("X-Lit"), h.Get("X-Conv"))
	}
}

func TestDispatch_RequiredComputeFailure(t *testing.T) {
	reg := contract.NewComputeRegistry().Register("t.Fail", func() (string, error) { return "", stderrors.New("down") })
	def := &contract.InterfaceDef{Name: "H", Type: reflect.TypeFor[descriptor](),
		Headers: []contract.HeaderRuleDef{{Name: "X-C", Values: []string{"{t.Fail}"}, Required: true}},
		Methods: []contract.MethodDef{{Name: "Call", Verbs: []string{"GET"}, Result: contract.Result{Kind: contract.ResultNone}}},
	}
	c, err := contract.Compile(def, contract.Options{Compute: reg})
	if err != nil {
		t.Fatal(err)
	}
	iface := c.Bind(contract.Providers{})
	tr := &fakeTransport{resp: jsonResp(200, "")}
	_, err = newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Call"), nil)
	if !errors.IsConversion(err) {
		t.Errorf("expected conversion error, got %v", err)
	}
	if tr.calls() != 0 {
		t.Error("no request should be sent")
	}
}

func TestDispatch_NilPathValue(t *testing.T) {
	iface := build(t, &contract.InterfaceDef{Name: "A", Methods: []contract.MethodDef{{
		Name: "Get", Verbs: []string{"GET"}, Path: "/{id}",
		Params: []contract.ParamDef{p(0, reflect.TypeFor[*string](), a(contract.RolePath, "id"))},
		Result: contract.Result{Kind: contract.ResultNone},
	}}})
	_, err := newDispatcher(&fakeTransport{}).Dispatch(context.Background(), target(iface), method(t, iface, "Get"), []any{(*string)(nil)})
	if !errors.IsConversion(err) {
		t.Errorf("expected conversion error, got %v", err)
	}
}

type userKey struct {
	ID     string `path:"id"`
	Fields string `query:"fields"`
}

func TestDispatch_NilPathBean(t *testing.T) {
	iface := build(t, &contract.InterfaceDef{Name: "Users", Path: "/users", Methods: []contract.MethodDef{{
		Name: "Get", Verbs: []string{"GET"}, Path: "/{id}",
		Params: []contract.ParamDef{p(0, reflect.TypeFor[*userKey](), a(contract.RoleBean, ""))},
		Result: contract.Result{Kind: contract.ResultNone},
	}}})
	tr := &fakeTransport{resp: jsonResp(204, "")}
	d := newDispatcher(tr)
	m := method(t, iface, "Get")

	_, err := d.Dispatch(context.Background(), target(iface), m, []any{(*userKey)(nil)})
	if !errors.IsConversion(err) {
		t.Errorf("expected conversion error, got %v", err)
	}
	if tr.calls() != 0 {
		t.Errorf("no request should be sent, got %s", tr.last().URL)
	}

	if _, err := d.Dispatch(context.Background(), target(iface), m, []any{&userKey{ID: "7", Fields: "name"}}); err != nil {
		t.Fatal(err)
	}
	if got := tr.last().URL; got != "http://api.local/users/7?fields=name" {
		t.Errorf("unexpected url %s", got)
	}
}

func TestDispatch_SubResource(t *testing.T) {
	iface := build(t, &contract.InterfaceDef{Name: "Users", Path: "/users", Methods: []contract.MethodDef{{
		Name: "Items", Path: "/{id}/items",
		Params:  []contract.ParamDef{p(0, strT, a(contract.RolePath, "id"))},
		Result:  contract.Result{Kind: contract.ResultSubResource},
		SubType: reflect.TypeFor[childDescriptor](),
	}}})
	tr := &fakeTransport{}
	out, err := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Items"), []any{"7"})
	if err != nil {
		t.Fatal(err)
	}
	sub, ok := out.(*SubResource)
	if !ok {
		t.Fatalf("expected *SubResource, got %T", out)
	}
	if tr.calls() != 0 {
		t.Error("sub-resource locator must not perform I/O")
	}
	if sub.Target.URL() != "http://api.local/users/7/items" || sub.Interface.Name() != "Child" || !sub.Interface.Bound() {
		t.Errorf("unexpected sub-resource %s %s", sub.Target.URL(), sub.Interface.Name())
	}
}

func TestDispatch_Mapping(t *testing.T) {
	errFive, errTen := stderrors.New("five"), stderrors.New("ten")
	always := func(err error, prio int) mapper.Mapper {
		return mapper.For(prio, func(int, http.Header) bool { return true }, func(*transport.Response) error { return err })
	}
	def := func() *contract.InterfaceDef {
		return &contract.InterfaceDef{Name: "A", Methods: []contract.MethodDef{{
			Name: "Get", Verbs: []string{"GET"}, Result: contract.Result{Kind: contract.ResultValue, Type: userT},
		}}}
	}

	t.Run("priority 5 beats 10", func(t *testing.T) {
		iface := build(t, def(), always(errTen, 10), always(errFive, 5))
		_, err := newDispatcher(&fakeTransport{resp: jsonResp(400, "")}).Dispatch(context.Background(), target(iface), method(t, iface, "Get"), nil)
		if err != errFive {
			t.Errorf("expected errFive, got %v", err)
		}
	})

	t.Run("default mapper carries status", func(t *testing.T) {
		iface := build(t, def())
		_, err := newDispatcher(&fakeTransport{resp: jsonResp(503, "")}).Dispatch(context.Background(), target(iface), method(t, iface, "Get"), nil)
		if !errors.IsWebApplication(err) || errors.StatusOf(err) != 503 {
			t.Errorf("expected status error 503, got %v", err)
		}
	})

	t.Run("undeclared kind is wrapped", func(t *testing.T) {
		d := def()
		d.Methods[0].Errors = []reflect.Type{reflect.TypeFor[*notFoundError]()}
		iface := build(t, d, always(errTen, 1))
		_, err := newDispatcher(&fakeTransport{resp: jsonResp(409, "")}).Dispatch(context.Background(), target(iface), method(t, iface, "Get"), nil)
		if !errors.IsWebApplication(err) || !stderrors.Is(err, errTen) || errors.StatusOf(err) != 409 {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})

	t.Run("declared kind passes through", func(t *testing.T) {
		d := def()
		d.Methods[0].Errors = []reflect.Type{reflect.TypeFor[*notFoundError]()}
		nf := &notFoundError{}
		iface := build(t, d, always(nf, 1))
		_, err := newDispatcher(&fakeTransport{resp: jsonResp(404, "")}).Dispatch(context.Background(), target(iface), method(t, iface, "Get"), nil)
		if err != nf {
			t.Errorf("expected declared error unchanged, got %v", err)
		}
	})

	t.Run("transport error unchanged", func(t *testing.T) {
		terr := &transport.Error{Code: transport.ErrCodeConnection, Err: stderrors.New("refused")}
		iface := build(t, def())
		_, err := newDispatcher(&fakeTransport{err: terr}).Dispatch(context.Background(), target(iface), method(t, iface, "Get"), nil)
		if err != terr {
			t.Errorf("expected transport error unchanged, got %v", err)
		}
	})
}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

func TestDispatch_RawAndNone(t *testing.T) {
	iface := build(t, &contract.InterfaceDef{Name: "A", Methods: []contract.MethodDef{
		{Name: "Raw", Verbs: []string{"GET"}, Result: contract.Result{Kind: contract.ResultRaw}},
		{Name: "None", Verbs: []string{"POST"}, Result: contract.Result{Kind: contract.ResultNone}},
	}})
	tr := &fakeTransport{resp: jsonResp(200, `{"id":"1"}`)}
	d := newDispatcher(tr)

	out, err := d.Dispatch(context.Background(), target(iface), method(t, iface, "Raw"), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := out.(*transport.Response)
	if !ok || resp.StatusCode != 200 {
		t.Errorf("expected raw response, got %T", out)
	}
	out, err = d.Dispatch(context.Background(), target(iface), method(t, iface, "None"), nil)
	if err != nil || out != nil {
		t.Errorf("expected nil result, got %v %v", out, err)
	}
}

func asyncIface(t *testing.T, mappers ...mapper.Mapper) *contract.Interface {
	return build(t, &contract.InterfaceDef{Name: "A", Methods: []contract.MethodDef{{
		Name: "Fetch", Verbs: []string{"GET"},
		Result: contract.Result{Kind: contract.ResultValue, Type: reflect.TypeFor[user](), Async: true, Future: reflect.TypeFor[*Future[user]]()},
	}}}, mappers...)
}

func TestDispatch_AsyncResolves(t *testing.T) {
	iface := asyncIface(t)
	tr := &fakeTransport{resp: jsonResp(200, `{"id":"9","name":"Bo"}`)}
	out, err := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Fetch"), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	u, err := out.(*Future[user]).Get(ctx)
	if err != nil || u.ID != "9" {
		t.Errorf("unexpected result %+v %v", u, err)
	}
}

func TestDispatch_AsyncTransportFailureSkipsMappers(t *testing.T) {
	var mapped int32
	counting := mapper.For(1, func(int, http.Header) bool { atomic.AddInt32(&mapped, 1); return true },
		func(*transport.Response) error { return stderrors.New("mapped") })
	iface := asyncIface(t, counting)

	terr := &transport.Error{Code: transport.ErrCodeTimeout, Err: context.DeadlineExceeded}
	out, _ := newDispatcher(&fakeTransport{err: terr}).Dispatch(context.Background(), target(iface), method(t, iface, "Fetch"), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := out.(*Future[user]).Get(ctx); err != terr {
		t.Errorf("expected raw transport error, got %v", err)
	}
	if atomic.LoadInt32(&mapped) != 0 {
		t.Error("mappers must not run for transport failures")
	}
}

func TestDispatch_AsyncMappedError(t *testing.T) {
	iface := asyncIface(t)
	out, _ := newDispatcher(&fakeTransport{resp: jsonResp(404, "")}).Dispatch(context.Background(), target(iface), method(t, iface, "Fetch"), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := out.(*Future[user]).Get(ctx); errors.StatusOf(err) != 404 {
		t.Errorf("expected mapped 404, got %v", err)
	}
}

func TestDispatch_AsyncMapperPanicRejects(t *testing.T) {
	panicky := mapper.For(1, func(int, http.Header) bool { return true }, func(*transport.Response) error { panic("bad mapper") })
	iface := asyncIface(t, panicky)
	out, _ := newDispatcher(&fakeTransport{resp: jsonResp(500, "")}).Dispatch(context.Background(), target(iface), method(t, iface, "Fetch"), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := out.(*Future[user]).Get(ctx); err == nil {
		t.Error("expected panic to reject the future")
	}
}

type finishRecorder struct {
	mu       sync.Mutex
	statuses []int
	errs     []error
}

func (r *finishRecorder) Start(ctx context.Context, _ observability.Call) (context.Context, observability.Finish) {
	return ctx, func(status int, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.statuses = append(r.statuses, status)
		r.errs = append(r.errs, err)
	}
}

func TestDispatch_SyncMapperPanicFinishesCall(t *testing.T) {
	panicky := mapper.For(1, func(int, http.Header) bool { return true }, func(*transport.Response) error { panic("bad mapper") })
	iface := build(t, &contract.InterfaceDef{Name: "A", Methods: []contract.MethodDef{{
		Name: "Get", Verbs: []string{"GET"}, Result: contract.Result{Kind: contract.ResultNone},
	}}}, panicky)
	rec := &finishRecorder{}
	d := New(&fakeTransport{resp: jsonResp(500, "")}, WithLogger(logger.Nop()), WithRecorder(rec))

	func() {
		defer func() {
			if r := recover(); r != "bad mapper" {
				t.Errorf("expected the mapper panic to propagate, got %v", r)
			}
		}()
		_, _ = d.Dispatch(context.Background(), target(iface), method(t, iface, "Get"), nil)
	}()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.statuses) != 1 || rec.statuses[0] != 500 {
		t.Fatalf("expected one finish with status 500, got %v", rec.statuses)
	}
	var appErr *errors.AppError
	if !stderrors.As(rec.errs[0], &appErr) || appErr.Code != errors.ErrCodeInternal {
		t.Errorf("expected internal error, got %v", rec.errs[0])
	}
}

func TestDispatch_AsyncCancelSkipsEvaluation(t *testing.T) {
	var mapped int32
	counting := mapper.For(1, func(int, http.Header) bool { atomic.AddInt32(&mapped, 1); return false }, nil)
	iface := asyncIface(t, counting)
	tr := &fakeTransport{resp: jsonResp(200, `{}`), gate: make(chan struct{})}

	out, _ := newDispatcher(tr).Dispatch(context.Background(), target(iface), method(t, iface, "Fetch"), nil)
	fut := out.(*Future[user])
	if !fut.Cancel() {
		t.Fatal("expected pending future to cancel")
	}
	close(tr.gate)
	tr.async.Wait()

	if _, err := fut.Get(context.Background()); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if atomic.LoadInt32(&mapped) != 0 {
		t.Error("cancelled future must not run the evaluator")
	}
	if !fut.Canceled() {
		t.Error("expected future to report cancellation")
	}
}
