package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/resilience"
)

// NewRetryableClient wraps base in a go-retryablehttp client configured from
// cfg. Exhausted retries return the last response rather than an error, so
// status mapping stays with the caller.
func NewRetryableClient(base *http.Client, cfg resilience.RetryConfig, log *logger.Logger) *http.Client {
	cfg.ApplyDefaults()

	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = cfg.MaxAttempts - 1
	rc.RetryWaitMin = cfg.InitialBackoff
	rc.RetryWaitMax = cfg.MaxBackoff
	rc.Logger = log.Leveled()
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Backoff = func(_, _ time.Duration, attempt int, _ *http.Response) time.Duration {
		return resilience.Backoff(attempt+1, cfg)
	}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return cfg.RetryIf(err), nil
		}
		return RetryableStatus(resp.StatusCode), nil
	}

	// base.Timeout bounds each attempt; the wrapping client has none.
	return rc.StandardClient()
}
