package transport

import "context"

// Transport sends requests. Do blocks; DoAsync returns immediately and
// reports to cb from the transport's executor.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	DoAsync(ctx context.Context, req *Request, cb Callback)
}
