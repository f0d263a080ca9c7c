package di

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/resilience"
)

// RegistrationMode determines how a component should be resolved
type RegistrationMode int

const (
	Eager     RegistrationMode = iota // Initialize immediately on registration
	Lazy                              // Initialize on first resolve
	Singleton                         // Pre-created instance
)

// String returns the mode name.
func (m RegistrationMode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Lazy:
		return "lazy"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// Container defines the interface for a dependency injection container
type Container interface {
	Register(key string, constructor interface{}) error
	RegisterLazy(key string, constructor interface{}, options ...LazyOption) error
	RegisterEager(key string, constructor interface{}) error
	RegisterSingleton(key string, instance interface{}) error
	Resolve(key string) (interface{}, error)
	Close() error

	// Introspection
	Registrations() []RegistrationInfo

	InvalidateCache(key string) error
	Refresh(key string) (interface{}, error)
}

// RegistrationInfo describes a registered component for introspection.
type RegistrationInfo struct {
	Key         string
	Mode        RegistrationMode
	Initialized bool
}

// UnifiedContainer is the default Container.
type UnifiedContainer struct {
	components map[string]*registration
	singletons map[string]interface{}
	mutex      sync.RWMutex
	log        *logger.Logger
}

type registration struct {
	key         string
	constructor reflect.Value
	mode        RegistrationMode

	mutex       sync.Mutex
	instance    interface{}
	initialized bool

	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// LazyOption tunes a lazy registration.
type LazyOption func(*registration)

// WithRetry sets the retry policy used when a lazy constructor fails.
func WithRetry(cfg resilience.RetryConfig) LazyOption {
	return func(reg *registration) {
		cfg.ApplyDefaults()
		reg.retry = cfg
	}
}

// WithCircuitBreaker sets the breaker guarding a lazy constructor.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) LazyOption {
	return func(reg *registration) {
		if cfg.Name == "" {
			cfg.Name = reg.key
		}
		reg.breaker = resilience.NewCircuitBreaker(cfg)
	}
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &UnifiedContainer{
		components: make(map[string]*registration),
		singletons: make(map[string]interface{}),
		log:        logger.WithComponent("di"),
	}
}

// Register registers a lazily constructed component.
func (c *UnifiedContainer) Register(key string, constructor interface{}) error {
	return c.RegisterLazy(key, constructor)
}

// RegisterLazy registers a component constructed on first Resolve.
func (c *UnifiedContainer) RegisterLazy(key string, constructor interface{}, options ...LazyOption) error {
	fn, err := checkConstructor(key, constructor)
	if err != nil {
		return err
	}
	reg := &registration{
		key:         key,
		constructor: fn,
		mode:        Lazy,
		retry:       defaultRetry(),
		breaker:     resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig(key)),
	}
	for _, opt := range options {
		opt(reg)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.components[key] = reg
	return nil
}

// RegisterEager constructs the component immediately.
func (c *UnifiedContainer) RegisterEager(key string, constructor interface{}) error {
	fn, err := checkConstructor(key, constructor)
	if err != nil {
		return err
	}
	instance, err := c.call(fn)
	if err != nil {
		return fmt.Errorf("failed to initialize eager component '%s': %w", key, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.components[key] = &registration{
		key:         key,
		constructor: fn,
		mode:        Eager,
		instance:    instance,
		initialized: true,
	}
	return nil
}

// RegisterSingleton registers a pre-created instance.
func (c *UnifiedContainer) RegisterSingleton(key string, instance interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.singletons[key] = instance
	return nil
}

// Resolve returns the component registered under key.
func (c *UnifiedContainer) Resolve(key string) (interface{}, error) {
	c.mutex.RLock()
	if singleton, ok := c.singletons[key]; ok {
		c.mutex.RUnlock()
		return singleton, nil
	}
	reg, ok := c.components[key]
	c.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("component not registered: %s", key)
	}

	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	if reg.initialized {
		return reg.instance, nil
	}
	if reg.mode == Eager {
		return nil, fmt.Errorf("eager component not properly initialized: %s", key)
	}
	return c.initialize(reg)
}

// initialize runs a lazy constructor under its retry policy and breaker.
// Callers hold reg.mutex.
func (c *UnifiedContainer) initialize(reg *registration) (interface{}, error) {
	start := time.Now()
	instance, err := resilience.Retry(context.Background(), reg.retry, func(attempt int) (interface{}, error) {
		var out interface{}
		err := reg.breaker.Execute(func() error {
			var callErr error
			out, callErr = c.call(reg.constructor)
			return callErr
		})
		if err != nil {
			c.log.Debug("Lazy component initialization failed",
				logger.MergeWithError(logger.Fields("component", reg.key, "attempt", attempt), err))
		}
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize lazy component '%s': %w", reg.key, err)
	}

	reg.instance = instance
	reg.initialized = true
	c.log.Info("Lazy component initialized",
		logger.MergeWithDuration(logger.Fields("component", reg.key), time.Since(start)))
	return instance, nil
}

var (
	containerType = reflect.TypeOf((*Container)(nil)).Elem()
	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

// checkConstructor accepts func() T, func() (T, error) and the same shapes
// taking a context.Context or a Container.
func checkConstructor(key string, constructor interface{}) (reflect.Value, error) {
	fn := reflect.ValueOf(constructor)
	if fn.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("di: constructor for '%s' must be a function, got %T", key, constructor)
	}
	t := fn.Type()
	if t.NumIn() > 1 || (t.NumIn() == 1 && t.In(0) != contextType && t.In(0) != containerType) {
		return reflect.Value{}, fmt.Errorf("di: constructor for '%s' must take no arguments, a context.Context or a Container", key)
	}
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return reflect.Value{}, fmt.Errorf("di: constructor for '%s' must return (instance) or (instance, error)", key)
	}
	return fn, nil
}

func (c *UnifiedContainer) call(fn reflect.Value) (interface{}, error) {
	var in []reflect.Value
	if fn.Type().NumIn() == 1 {
		if fn.Type().In(0) == contextType {
			in = []reflect.Value{reflect.ValueOf(context.Background())}
		} else {
			in = []reflect.Value{reflect.ValueOf(Container(c))}
		}
	}
	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// Registrations returns info about all registered components, sorted by key.
func (c *UnifiedContainer) Registrations() []RegistrationInfo {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]RegistrationInfo, 0, len(c.components)+len(c.singletons))
	for key, reg := range c.components {
		reg.mutex.Lock()
		result = append(result, RegistrationInfo{Key: key, Mode: reg.mode, Initialized: reg.initialized})
		reg.mutex.Unlock()
	}
	for key := range c.singletons {
		result = append(result, RegistrationInfo{Key: key, Mode: Singleton, Initialized: true})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Close closes every initialized component and singleton implementing
// io.Closer, returning the joined errors.
func (c *UnifiedContainer) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var errs []error
	closeOne := func(key string, v interface{}) {
		if closer, ok := v.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}
	for key, reg := range c.components {
		reg.mutex.Lock()
		if reg.initialized {
			closeOne(key, reg.instance)
		}
		reg.mutex.Unlock()
	}
	for key, s := range c.singletons {
		closeOne(key, s)
	}
	return errors.Join(errs...)
}

// InvalidateCache drops a cached lazy instance so the next Resolve rebuilds
// it. Singletons are removed.
func (c *UnifiedContainer) InvalidateCache(key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if reg, ok := c.components[key]; ok {
		if reg.mode == Eager {
			return fmt.Errorf("component '%s' is eager and cannot be invalidated", key)
		}
		reg.mutex.Lock()
		reg.initialized = false
		reg.instance = nil
		reg.mutex.Unlock()
		return nil
	}
	if _, ok := c.singletons[key]; ok {
		delete(c.singletons, key)
		return nil
	}
	return fmt.Errorf("component '%s' not registered", key)
}

// Refresh invalidates and resolves the component again.
func (c *UnifiedContainer) Refresh(key string) (interface{}, error) {
	if err := c.InvalidateCache(key); err != nil {
		return nil, err
	}
	return c.Resolve(key)
}

func defaultRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.InitialBackoff = 50 * time.Millisecond
	cfg.MaxBackoff = time.Second
	cfg.RetryIf = func(err error) bool {
		return !errors.Is(err, resilience.ErrCircuitOpen) && resilience.DefaultRetryIf(err)
	}
	return cfg
}
