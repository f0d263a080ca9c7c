package contract

import (
	stderrors "errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/restproxy/converter"
	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/mapper"
	"github.com/kbukum/restproxy/transport"
)

type usersAPI struct{}

func (*usersAPI) Tenant() string          { return "acme" }
func (*usersAPI) Named(h string) []string { return []string{h + "-1", h + "-2"} }
func (*usersAPI) Broken() (string, error) { return "", stderrors.New("boom") }
func (*usersAPI) BadShape(n int) string   { return "" }

type itemsAPI struct{}

type nodeAPI struct{}

var (
	strT = reflect.TypeFor[string]()
	intT = reflect.TypeFor[int]()
)

func param(i int, t reflect.Type, anns ...Annotation) ParamDef {
	return ParamDef{Index: i, Type: t, Annotations: anns}
}

func ann(r Role, name string) Annotation { return Annotation{Role: r, Name: name} }

func getDef(path string, params ...ParamDef) MethodDef {
	return MethodDef{Name: "Get", Verbs: []string{"GET"}, Path: path, Params: params,
		Result: Result{Kind: ResultValue, Type: strT}}
}

func iface(methods ...MethodDef) *InterfaceDef {
	return &InterfaceDef{Name: "Users", Type: reflect.TypeFor[usersAPI](), Path: "/users", Methods: methods}
}

func expectDefinition(t *testing.T, err error, contains string) {
	t.Helper()
	if !errors.IsDefinition(err) {
		t.Fatalf("expected definition error, got %v", err)
	}
	if contains != "" && !strings.Contains(err.Error(), contains) {
		t.Errorf("expected error containing %q, got %q", contains, err.Error())
	}
}

func TestCompile_Basic(t *testing.T) {
	def := iface(getDef("/{id}", param(0, strT, ann(RolePath, "id")), param(1, intT, ann(RoleQuery, "limit"))))
	def.Produces = []string{"application/json"}

	c, err := Compile(def, Options{})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := c.Method("Get")
	if !ok {
		t.Fatal("method not found")
	}
	if m.Verb() != "GET" || m.Path() != "/{id}" || m.String() != "Users::Get" {
		t.Errorf("unexpected method %s %s %s", m.Verb(), m.Path(), m)
	}
	if got := m.Produces(); !reflect.DeepEqual(got, []string{"application/json"}) {
		t.Errorf("produces should be inherited, got %v", got)
	}
	if got := m.Consumes(); !reflect.DeepEqual(got, []string{"*/*"}) {
		t.Errorf("consumes should default to wildcard, got %v", got)
	}
	if len(m.Bindings()) != 2 || m.Bindings()[1].Role != RoleQuery {
		t.Errorf("unexpected bindings %+v", m.Bindings())
	}
	if m.SendsBody() {
		t.Error("GET must not send a body")
	}
}

func TestCompile_RootPathNormalised(t *testing.T) {
	def := iface(getDef(""))
	def.Path = "/"
	c, err := Compile(def, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Path() != "" {
		t.Errorf("expected empty path, got %q", c.Path())
	}
}

func TestCompile_RolePrecedence(t *testing.T) {
	def := iface(getDef("/{id}",
		param(0, strT, ann(RoleQuery, "q"), ann(RoleHeader, "X-Q")),
		param(1, strT, ann(RoleForm, "f"), ann(RolePath, "id")),
	))
	def.Methods[0].Verbs = []string{"POST"}
	c, err := Compile(def, Options{})
	if err != nil {
		t.Fatal(err)
	}
	bs := c.Methods()[0].Bindings()
	if bs[0].Role != RoleHeader || bs[0].Name != "X-Q" {
		t.Errorf("header should beat query, got %s", bs[0].Role)
	}
	if bs[1].Role != RolePath {
		t.Errorf("path should beat form, got %s", bs[1].Role)
	}
}

func TestCompile_PathPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		params   []ParamDef
		contains string
	}{
		{"unbound placeholder", "/{id}", nil, "have no path parameter"},
		{"binding without placeholder", "", []ParamDef{param(0, strT, ann(RolePath, "id"))}, "has no placeholder"},
		{"bound twice", "/{id}", []ParamDef{param(0, strT, ann(RolePath, "id")), param(1, strT, ann(RolePath, "id"))}, "more than once"},
		{"bean binding without placeholder", "", []ParamDef{param(0, reflect.TypeFor[pathBean](), ann(RoleBean, ""))}, "has no placeholder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(iface(getDef(tt.path, tt.params...)), Options{})
			expectDefinition(t, err, tt.contains)
		})
	}
}

type pathBean struct {
	ID     string `path:"id"`
	Filter string `query:"filter"`
}

func TestCompile_BeanSatisfiesPlaceholder(t *testing.T) {
	def := iface(getDef("/{id}", param(0, reflect.TypeFor[*pathBean](), ann(RoleBean, ""))))
	c, err := Compile(def, Options{})
	if err != nil {
		t.Fatal(err)
	}
	leaves := Leaves(c.Methods()[0].Bindings())
	if len(leaves) != 2 || leaves[0].Role != RolePath || leaves[1].Role != RoleQuery {
		t.Errorf("unexpected leaves %+v", leaves)
	}
}

func TestCompile_RepeatedPlaceholderCountsOnce(t *testing.T) {
	def := iface(getDef("/{id}/copy/{id}", param(0, strT, ann(RolePath, "id"))))
	if _, err := Compile(def, Options{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCompile_InterfacePathPlaceholders(t *testing.T) {
	def := iface(getDef("/{id}", param(0, strT, ann(RolePath, "id"))))
	def.Path = "/tenants/{tenant}/users"
	_, err := Compile(def, Options{})
	expectDefinition(t, err, "[tenant]")
}

type bodyBean struct {
	Payload string `body:""`
}

type loopBean struct {
	Next *loopBean `bean:""`
}

func TestCompile_DefinitionErrors(t *testing.T) {
	post := func(params ...ParamDef) MethodDef {
		m := getDef("", params...)
		m.Verbs = []string{"POST"}
		return m
	}
	tests := []struct {
		name     string
		method   MethodDef
		contains string
	}{
		{"two verbs", MethodDef{Name: "X", Verbs: []string{"GET", "POST"}}, "more than one HTTP method"},
		{"unknown verb", MethodDef{Name: "X", Verbs: []string{"FETCH"}}, "unknown HTTP method"},
		{"no verb nor path", MethodDef{Name: "X"}, "neither"},
		{"two bodies", post(param(0, strT), param(1, strT)), "bound to the body"},
		{"form and body", post(param(0, strT, ann(RoleForm, "a")), param(1, strT)), "form parameters"},
		{"unnamed query", post(param(0, strT, ann(RoleQuery, ""))), "has no name"},
		{"body in bean", post(param(0, reflect.TypeFor[bodyBean](), ann(RoleBean, ""))), "cannot be a body"},
		{"recursive bean", post(param(0, reflect.TypeFor[loopBean](), ann(RoleBean, ""))), "contains itself"},
		{"bean not struct", post(param(0, strT, ann(RoleBean, ""))), "not a struct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(iface(tt.method), Options{})
			expectDefinition(t, err, tt.contains)
		})
	}
}

func TestCompile_Headers(t *testing.T) {
	reg := NewComputeRegistry().
		Register("ids.Static", func() string { return "static" }).
		Register("ids.Twice", func() string { return "a" }).
		Register("ids.Twice", func(string) []string { return nil }).
		Register("ids.Invalid", func(int) string { return "" })

	tests := []struct {
		name     string
		headers  []HeaderRuleDef
		contains string
	}{
		{"duplicate", []HeaderRuleDef{{Name: "x-a", Values: []string{"1"}}, {Name: "X-A", Values: []string{"2"}}}, "more than once"},
		{"mixed compute", []HeaderRuleDef{{Name: "X", Values: []string{"lit", "{Tenant}"}}}, "mixes"},
		{"missing method", []HeaderRuleDef{{Name: "X", Values: []string{"{Nope}"}}}, "not found"},
		{"bad method shape", []HeaderRuleDef{{Name: "X", Values: []string{"{BadShape}"}}}, "unsupported signature"},
		{"unregistered", []HeaderRuleDef{{Name: "X", Values: []string{"{ids.Unknown}"}}}, "no compute function"},
		{"invalid shape only", []HeaderRuleDef{{Name: "X", Values: []string{"{ids.Invalid}"}}}, "no compute function"},
		{"ambiguous", []HeaderRuleDef{{Name: "X", Values: []string{"{ids.Twice}"}}}, "2 compute functions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := iface(getDef(""))
			def.Headers = tt.headers
			_, err := Compile(def, Options{Compute: reg})
			expectDefinition(t, err, tt.contains)
		})
	}

	t.Run("method level duplicates", func(t *testing.T) {
		m := getDef("")
		m.Headers = []HeaderRuleDef{{Name: "A", Values: []string{"1"}}, {Name: "a", Values: []string{"2"}}}
		_, err := Compile(iface(m), Options{})
		expectDefinition(t, err, "more than once")
	})
}

func TestHeaderRule_Resolve(t *testing.T) {
	reg := NewComputeRegistry().
		Register("ids.Static", func() string { return "static" }).
		Register("ids.Fail", func() ([]string, error) { return nil, stderrors.New("down") }).
		Register("ids.Panic", func() string { panic("no tenant") })

	def := iface(getDef(""))
	def.Headers = []HeaderRuleDef{
		{Name: "x-literal", Values: []string{"a", " b"}, Required: true},
		{Name: "X-Tenant", Values: []string{"{Tenant}"}, Required: true},
		{Name: "X-Named", Values: []string{"{Named}"}, Required: true},
		{Name: "X-Static", Values: []string{"{ ids.Static }"}, Required: true},
		{Name: "X-Optional", Values: []string{"{ids.Fail}"}, Required: false},
		{Name: "X-Optional-Panic", Values: []string{"{ids.Panic}"}, Required: false},
		{Name: "X-Required", Values: []string{"{Broken}"}, Required: true},
		{Name: "X-Required-Panic", Values: []string{"{ids.Panic}"}, Required: true},
	}
	c, err := Compile(def, Options{Compute: reg})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][]string{
		"X-Literal":        {"a", "b"},
		"X-Tenant":         {"acme"},
		"X-Named":          {"X-Named-1", "X-Named-2"},
		"X-Static":         {"static"},
		"X-Optional":       nil,
		"X-Optional-Panic": nil,
	}
	for _, r := range c.HeaderRules() {
		vals, err := r.Resolve()
		if strings.HasPrefix(r.Name(), "X-Required") {
			if !errors.IsConversion(err) {
				t.Errorf("required failure should be a conversion error, got %v", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", r.Name(), err)
		}
		if !reflect.DeepEqual(vals, want[r.Name()]) {
			t.Errorf("%s: expected %v, got %v", r.Name(), want[r.Name()], vals)
		}
	}
}

func TestHeaderRule_LiteralMatchesConvertedValue(t *testing.T) {
	def := iface(getDef(""))
	def.Headers = []HeaderRuleDef{{Name: "X-Count", Values: []string{"42"}, Required: true}}
	c, err := Compile(def, Options{})
	if err != nil {
		t.Fatal(err)
	}
	lit, _ := c.HeaderRules()[0].Resolve()
	conv, err := converter.NewRegistry().Strings("X-Count", 42)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lit, conv) {
		t.Errorf("literal %v and converted %v differ", lit, conv)
	}
}

func subDef(name string, path string, params []ParamDef, sub reflect.Type) MethodDef {
	return MethodDef{Name: name, Path: path, Params: params, Result: Result{Kind: ResultSubResource}, SubType: sub}
}

func TestCompile_SubResources(t *testing.T) {
	parse := func(t reflect.Type) (*InterfaceDef, error) {
		switch t {
		case reflect.TypeFor[itemsAPI]():
			return &InterfaceDef{Name: "Items", Type: t, Methods: []MethodDef{getDef("")}}, nil
		case reflect.TypeFor[nodeAPI]():
			return &InterfaceDef{Name: "Node", Type: t, Methods: []MethodDef{
				getDef(""),
				subDef("Child", "/{child}", []ParamDef{param(0, strT, ann(RolePath, "child"))}, t),
			}}, nil
		}
		return nil, stderrors.New("unknown type")
	}

	def := iface(
		subDef("Items", "/{id}/items", []ParamDef{param(0, strT, ann(RolePath, "id"))}, reflect.TypeFor[itemsAPI]()),
		subDef("Tree", "/tree", nil, reflect.TypeFor[nodeAPI]()),
	)
	c, err := Compile(def, Options{Parse: parse})
	if err != nil {
		t.Fatal(err)
	}

	items, _ := c.Method("Items")
	if !items.IsSubResource() || items.Child().Name() != "Items" || items.Verb() != "" {
		t.Errorf("unexpected items locator %+v", items)
	}
	tree, _ := c.Method("Tree")
	node := tree.Child()
	child, _ := node.Method("Child")
	if child.Child() != node {
		t.Error("recursive sub-resource should resolve to the same interface")
	}

	_, err = Compile(iface(subDef("Items", "/items", nil, reflect.TypeFor[itemsAPI]())), Options{})
	expectDefinition(t, err, "cannot parse")
}

type upperConv struct{}

func (upperConv) Converter(t reflect.Type) converter.Converter {
	if t != strT {
		return nil
	}
	return converter.Func(func(v any) (string, error) { return strings.ToUpper(v.(string)), nil })
}

func TestBind_Providers(t *testing.T) {
	parentErr := stderrors.New("parent")
	childErr := stderrors.New("child")
	childMapper := mapper.Status(404, 1, func(*transport.Response) error { return childErr })

	parse := func(rt reflect.Type) (*InterfaceDef, error) {
		return &InterfaceDef{Name: "Items", Type: rt, Providers: []any{childMapper}, Methods: []MethodDef{getDef("")}}, nil
	}
	def := iface(subDef("Items", "/items", nil, reflect.TypeFor[itemsAPI]()))
	def.Providers = []any{upperConv{}}

	c, err := Compile(def, Options{Parse: parse})
	if err != nil {
		t.Fatal(err)
	}
	bound := c.Bind(Providers{Mappers: mapper.NewRegistry(mapper.Status(404, 1, func(*transport.Response) error { return parentErr }))})

	if c.Bound() || !bound.Bound() {
		t.Error("Bind must return a new bound interface")
	}
	if s, _ := bound.Providers().Converters.ToString("abc"); s != "ABC" {
		t.Errorf("own converter not applied, got %q", s)
	}

	m, _ := bound.Method("Items")
	if m.Interface() != bound {
		t.Error("bound methods must point at the bound interface")
	}
	child := m.Child()
	if !child.Bound() {
		t.Fatal("child should be bound")
	}
	if s, _ := child.Providers().Converters.ToString("abc"); s != "ABC" {
		t.Errorf("child should inherit parent converter, got %q", s)
	}
	resp := transport.NewResponse(404, http.Header{}, nil, nil)
	if err := child.Providers().Mappers.Evaluate(resp); err != childErr {
		t.Errorf("child's own mapper should precede inherited one, got %v", err)
	}
	if err := bound.Providers().Mappers.Evaluate(resp); err != parentErr {
		t.Errorf("parent must not see child mapper, got %v", err)
	}
}

func TestCompile_UnknownProvider(t *testing.T) {
	def := iface(getDef(""))
	def.Providers = []any{42}
	_, err := Compile(def, Options{})
	expectDefinition(t, err, "unsupported provider")
}

type nestedBean struct {
	Inner *pathBean `bean:""`
	Tag   []string  `header:"X-Tag"`
	skip  string
}

func TestWalk(t *testing.T) {
	def := iface(getDef("/{id}",
		param(0, reflect.TypeFor[nestedBean](), ann(RoleBean, "")),
		param(1, intT, ann(RoleQuery, "n")),
	))
	c, err := Compile(def, Options{})
	if err != nil {
		t.Fatal(err)
	}
	bs := c.Methods()[0].Bindings()

	got := map[string]any{}
	collect := func(b *Binding, v any) error { got[b.Role.String()+":"+b.Name] = v; return nil }

	arg := nestedBean{Inner: &pathBean{ID: "7", Filter: "f"}, Tag: []string{"x"}, skip: "s"}
	if err := Walk(bs, []any{arg, 3}, collect); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"path:id": "7", "query:filter": "f", "header:X-Tag": []string{"x"}, "query:n": 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = map[string]any{}
	if err := Walk(bs, []any{nestedBean{}, 1}, collect); err != nil {
		t.Fatal(err)
	}
	if v, ok := got["path:id"]; !ok || v != nil {
		t.Errorf("nil nested bean should report its leaves with nil, got %v", got)
	}
	if v, ok := got["query:filter"]; !ok || v != nil {
		t.Errorf("expected nil query:filter, got %v", got)
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range []Role{RolePath, RoleHeader, RoleBean, RoleCookie, RoleQuery, RoleMatrix, RoleForm, RoleBody} {
		got, ok := ParseRole(strings.ToUpper(r.String()))
		if !ok || got != r {
			t.Errorf("round trip failed for %s", r)
		}
	}
	if _, ok := ParseRole("entity"); ok {
		t.Error("unexpected role")
	}
}
