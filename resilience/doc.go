// Package resilience provides the transport-side protection used by restproxy
// clients. The request compiler and dispatcher never retry; these patterns
// belong to the transport and are configured per client.
//
//   - Retry: bounded exponential backoff for transport attempts
//   - CircuitBreaker: fails fast while a remote service is unhealthy
//   - RateLimiter: token bucket on top of golang.org/x/time/rate
//   - Bulkhead: bounded concurrency for the async executor
//
// Typical transport wiring:
//
//	err := cb.Execute(func() error {
//	    if err := rl.Wait(ctx); err != nil {
//	        return err
//	    }
//	    return send(ctx, req)
//	})
package resilience
