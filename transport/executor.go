package transport

import (
	"context"

	"github.com/kbukum/restproxy/resilience"
)

// Callback receives the outcome of an async request: a response, or the
// error that prevented one.
type Callback func(*Response, error)

// Executor runs async requests on a bounded set of goroutines.
type Executor struct {
	bulkhead *resilience.Bulkhead
}

// NewExecutor creates an executor allowing maxConcurrent calls in flight.
// Submissions queue for a free slot until the bulkhead wait expires or their
// context is done.
func NewExecutor(name string, maxConcurrent int) *Executor {
	cfg := resilience.DefaultBulkheadConfig(name)
	if maxConcurrent > 0 {
		cfg.MaxConcurrent = maxConcurrent
	}
	return &Executor{bulkhead: resilience.NewBulkhead(cfg)}
}

// Submit runs do on the executor and reports its outcome to cb. It never
// blocks: waiting for a slot happens on the spawned goroutine, and a
// rejection reaches cb from there.
func (e *Executor) Submit(ctx context.Context, req *Request, do func(context.Context, *Request) (*Response, error), cb Callback) {
	go func() {
		err := e.bulkhead.Execute(ctx, func() error {
			cb(do(ctx, req))
			return nil
		})
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			cb(nil, Classify(ctx, req, err))
			return
		}
		cb(nil, NewRejectedError(req, err))
	}()
}

// InFlight returns the number of async calls running.
func (e *Executor) InFlight() int { return e.bulkhead.InUse() }
