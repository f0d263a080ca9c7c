package client

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/restproxy/compute"
	"github.com/kbukum/restproxy/contract"
	"github.com/kbukum/restproxy/dispatch"
	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/mapper"
	"github.com/kbukum/restproxy/observability"
	"github.com/kbukum/restproxy/propagation"
	"github.com/kbukum/restproxy/transport"
	"github.com/kbukum/restproxy/validation"
)

var (
	defaultComputeOnce sync.Once
	defaultCompute     *contract.ComputeRegistry
)

// DefaultCompute returns the process-wide compute registry holding the
// built-in functions. Functions registered on it are visible to every
// builder.
func DefaultCompute() *contract.ComputeRegistry {
	defaultComputeOnce.Do(func() {
		defaultCompute = compute.Register(contract.NewComputeRegistry())
	})
	return defaultCompute
}

// Builder configures and builds clients. A Builder may build any number of
// clients; it is not safe for concurrent configuration.
type Builder struct {
	baseURL    string
	transport  transport.Transport
	tcfg       transport.Config
	providers  []any
	properties map[string]string
	compute    *contract.ComputeRegistry
	errors     map[string][]reflect.Type
	propagate  []string
	log        *logger.Logger
	recorder   observability.Recorder
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		properties: make(map[string]string),
		errors:     make(map[string][]reflect.Type),
	}
}

// BaseURL sets the URL every request path is joined to. Required.
func (b *Builder) BaseURL(u string) *Builder {
	b.baseURL = u
	return b
}

// ConnectTimeout bounds dialing for the transport the builder creates.
func (b *Builder) ConnectTimeout(d time.Duration) *Builder {
	b.tcfg.ConnectTimeout = d
	return b
}

// ReadTimeout bounds each exchange for the transport the builder creates.
func (b *Builder) ReadTimeout(d time.Duration) *Builder {
	b.tcfg.ReadTimeout = d
	return b
}

// TransportConfig sets the configuration of the transport the builder
// creates. Timeouts set before or after are applied on top.
func (b *Builder) TransportConfig(cfg transport.Config) *Builder {
	connect, read := b.tcfg.ConnectTimeout, b.tcfg.ReadTimeout
	b.tcfg = cfg
	if connect > 0 {
		b.tcfg.ConnectTimeout = connect
	}
	if read > 0 {
		b.tcfg.ReadTimeout = read
	}
	return b
}

// Transport makes built clients use t instead of creating an HTTP transport.
func (b *Builder) Transport(t transport.Transport) *Builder {
	b.transport = t
	return b
}

// Register adds mappers, converter providers or codecs. They apply to every
// interface built, under the interface's own providers.
func (b *Builder) Register(providers ...any) *Builder {
	b.providers = append(b.providers, providers...)
	return b
}

// Property sets a builder property such as mapper.DisableDefaultProperty.
func (b *Builder) Property(name, value string) *Builder {
	b.properties[name] = value
	return b
}

// DisableDefaultMapper leaves the status >= 400 mapper unregistered.
func (b *Builder) DisableDefaultMapper() *Builder {
	return b.Property(mapper.DisableDefaultProperty, "true")
}

// Compute registers a header compute function under a dotted name for the
// clients of this builder.
func (b *Builder) Compute(name string, fn any) *Builder {
	if b.compute == nil {
		b.compute = contract.NewComputeRegistry()
	}
	b.compute.Register(name, fn)
	return b
}

// DeclareErrors declares the error kinds a method may fail with. method is a
// field name, matched in every interface the client reaches, or
// "Interface::Method" to target one interface. Each kind is
// given as a typed nil, e.g. (*NotFound)(nil), or a pointer to an interface
// type, e.g. (*Temporary)(nil). A kind that is neither an interface nor an
// error type fails Build. Mapped errors of other kinds are wrapped.
func (b *Builder) DeclareErrors(method string, kinds ...any) *Builder {
	for _, k := range kinds {
		t := reflect.TypeOf(k)
		if t == nil {
			continue
		}
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
			t = t.Elem()
		}
		b.errors[method] = append(b.errors[method], t)
	}
	return b
}

// PropagateHeaders copies the named inbound headers onto every call of
// interfaces that declare no headers factory of their own.
func (b *Builder) PropagateHeaders(names ...string) *Builder {
	b.propagate = append(b.propagate, names...)
	return b
}

// Logger sets the logger used by built clients.
func (b *Builder) Logger(l *logger.Logger) *Builder {
	b.log = l
	return b
}

// Recorder sets the call recorder used by built clients.
func (b *Builder) Recorder(r observability.Recorder) *Builder {
	b.recorder = r
	return b
}

func (b *Builder) logger() *logger.Logger {
	if b.log != nil {
		return b.log
	}
	return logger.WithComponent("client")
}

func (b *Builder) defaultMapperDisabled() bool {
	v, ok := b.properties[mapper.DisableDefaultProperty]
	if !ok {
		return false
	}
	disabled, err := strconv.ParseBool(v)
	return err == nil && disabled
}

func (b *Builder) validate() error {
	if err := validation.New().
		Required("base_url", b.baseURL).
		AbsoluteURL("base_url", b.baseURL).
		NonNegative("connect_timeout", b.tcfg.ConnectTimeout).
		NonNegative("read_timeout", b.tcfg.ReadTimeout).
		Validate(); err != nil {
		return errors.Configuration(err.Message).WithCause(err)
	}
	for _, method := range slices.Sorted(maps.Keys(b.errors)) {
		for _, k := range b.errors[method] {
			if k.Kind() != reflect.Interface && !k.Implements(errorType) {
				return errors.Configuration(fmt.Sprintf("declared error kind %s of %s does not implement error", k, method))
			}
		}
	}
	return nil
}

// Build fills every annotated func field of the descriptor ptr points to.
func (b *Builder) Build(ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.Configuration("Build needs a non-nil pointer to a descriptor struct")
	}
	if err := b.validate(); err != nil {
		return err
	}

	iface, err := b.compile(rv.Elem().Type())
	if err != nil {
		return err
	}
	bound, err := b.bind(iface)
	if err != nil {
		return err
	}
	tr, err := b.newTransport(bound.Name())
	if err != nil {
		return err
	}

	log := b.logger().WithFields(logger.Fields(logger.FieldInterface, bound.Name()))
	d := dispatch.New(tr, dispatch.WithLogger(log), dispatch.WithRecorder(b.recorder))
	target := transport.NewTarget(b.baseURL).Path(bound.Path())
	bindInstance(rv.Elem(), bound, target, d)

	log.Info("client bound", logger.Fields(
		"base_url", b.baseURL,
		"methods", len(bound.Methods()),
		"default_mapper", !b.defaultMapperDisabled(),
	))
	return nil
}

// New builds a client of descriptor type T.
func New[T any](b *Builder) (*T, error) {
	c := new(T)
	if err := b.Build(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (b *Builder) compile(t reflect.Type) (*contract.Interface, error) {
	def, err := b.definition(t)
	if err != nil {
		return nil, err
	}
	reg := DefaultCompute()
	if b.compute != nil {
		reg = reg.Merge(b.compute)
	}
	return contract.Compile(def, contract.Options{Compute: reg, Parse: b.definition})
}

// definition returns the parsed descriptor of t with the builder's declared
// errors and header propagation applied.
func (b *Builder) definition(t reflect.Type) (*contract.InterfaceDef, error) {
	parsed, err := Parse(t)
	if err != nil {
		return nil, err
	}
	def := *parsed
	if def.Factory == nil && len(b.propagate) > 0 {
		def.Factory = propagation.NewDefaultFactory(b.propagate...)
	}
	if len(b.errors) > 0 {
		def.Methods = append([]contract.MethodDef(nil), parsed.Methods...)
		for i := range def.Methods {
			m := &def.Methods[i]
			kinds := append(append([]reflect.Type(nil), b.errors[m.Name]...), b.errors[def.Name+"::"+m.Name]...)
			if len(kinds) > 0 {
				m.Errors = append(append([]reflect.Type(nil), m.Errors...), kinds...)
			}
		}
	}
	return &def, nil
}

func (b *Builder) bind(iface *contract.Interface) (*contract.Interface, error) {
	root, err := contract.Providers{}.With(b.providers...)
	if err != nil {
		return nil, errors.Configuration(err.Error())
	}
	if !b.defaultMapperDisabled() {
		if root, err = root.With(mapper.Default()); err != nil {
			return nil, errors.Configuration(err.Error())
		}
	}
	return iface.Bind(root), nil
}

func (b *Builder) newTransport(name string) (transport.Transport, error) {
	if b.transport != nil {
		return b.transport, nil
	}
	cfg := b.tcfg
	if cfg.Name == "" {
		cfg.Name = name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Configuration(err.Error())
	}
	t, err := transport.New(cfg, transport.WithLogger(b.logger().WithComponent("transport")))
	if err != nil {
		return nil, errors.Configuration(err.Error())
	}
	return t, nil
}
