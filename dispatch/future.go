package dispatch

import (
	"context"
	"reflect"
	"sync"
)

// Future is the pending result of an asynchronous call.
type Future[T any] struct {
	once     sync.Once
	done     chan struct{}
	cancel   context.CancelFunc
	mu       sync.Mutex
	canceled bool
	val      T
	err      error
}

// NewFuture creates a pending future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Get waits for the result or for ctx to be done.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Err returns the failure of a completed future; it is nil while pending.
func (f *Future[T]) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Cancel aborts the call. The future completes with context.Canceled and
// the response, if one still arrives, is not evaluated. It reports whether
// the future was still pending.
func (f *Future[T]) Cancel() bool {
	ok := false
	f.once.Do(func() {
		f.mu.Lock()
		f.canceled = true
		f.mu.Unlock()
		f.err = context.Canceled
		close(f.done)
		ok = true
	})

	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return ok
}

// Canceled reports whether Cancel completed the future.
func (f *Future[T]) Canceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

// Resolve completes the future with a value.
func (f *Future[T]) Resolve(v T) bool {
	ok := false
	f.once.Do(func() {
		f.val = v
		close(f.done)
		ok = true
	})
	return ok
}

// Reject completes the future with an error.
func (f *Future[T]) Reject(err error) bool {
	return f.complete(nil, err)
}

func (f *Future[T]) complete(v any, err error) bool {
	ok := false
	f.once.Do(func() {
		if err != nil {
			f.err = err
		} else if v != nil {
			f.val = v.(T)
		}
		close(f.done)
		ok = true
	})
	return ok
}

func (f *Future[T]) bind(cancel context.CancelFunc) {
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()
}

func (f *Future[T]) init() {
	f.done = make(chan struct{})
}

func (f *Future[T]) elem() reflect.Type { return reflect.TypeFor[T]() }

type completer interface {
	init()
	bind(cancel context.CancelFunc)
	complete(v any, err error) bool
	Canceled() bool
	elem() reflect.Type
}

var completerType = reflect.TypeFor[completer]()

// IsFuture reports whether t is a *Future type.
func IsFuture(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Pointer && t.Implements(completerType)
}

// FutureElem returns T for a *Future[T] type.
func FutureElem(t reflect.Type) (reflect.Type, bool) {
	if !IsFuture(t) {
		return nil, false
	}
	return reflect.New(t.Elem()).Interface().(completer).elem(), true
}

// newFuture allocates a pending *Future of type t.
func newFuture(t reflect.Type) (any, completer) {
	v := reflect.New(t.Elem()).Interface()
	c := v.(completer)
	c.init()
	return v, c
}

// Rejected returns a *Future of type t that has already failed with err.
// t must satisfy IsFuture.
func Rejected(t reflect.Type, err error) any {
	v, c := newFuture(t)
	c.complete(nil, err)
	return v
}
