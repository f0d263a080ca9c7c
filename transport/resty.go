package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kbukum/restproxy/codec"
	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/resilience"
)

// retryStatus carries a response whose status asked for another attempt.
type retryStatus struct{ resp *Response }

func (e *retryStatus) Error() string { return fmt.Sprintf("retryable status %d", e.resp.StatusCode) }

// Resty is a transport built on go-resty. Retries run through
// resilience.Retry around each exchange.
type Resty struct {
	client   *resty.Client
	config   Config
	codecs   *codec.Registry
	log      *logger.Logger
	executor *Executor
}

var _ Transport = (*Resty)(nil)

// NewResty creates a resty-backed transport.
func NewResty(cfg Config, opts ...Option) (*Resty, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(cfg.Name, opts)

	var client *resty.Client
	if o.client != nil {
		client = resty.NewWithClient(o.client)
	} else {
		client = resty.New().SetTimeout(cfg.ReadTimeout)
	}
	client.SetLogger(restyLogger{o.log})
	client.SetHeader("User-Agent", cfg.UserAgent)
	if len(cfg.Headers) > 0 {
		client.SetHeaders(cfg.Headers)
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		client.SetTLSClientConfig(tlsCfg)
	}

	return &Resty{
		client:   client,
		config:   cfg,
		codecs:   o.codecs,
		log:      o.log,
		executor: NewExecutor(cfg.Name+"-async", cfg.MaxAsync),
	}, nil
}

// Do sends req and returns the response, whatever its status.
func (t *Resty) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.config.Retry == nil {
		return t.send(ctx, req)
	}

	retry := *t.config.Retry
	retryIf := retry.RetryIf
	if retryIf == nil {
		retryIf = resilience.DefaultRetryIf
	}
	retry.RetryIf = func(err error) bool {
		var rs *retryStatus
		if errors.As(err, &rs) {
			return true
		}
		return IsRetryable(err) && retryIf(err)
	}
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		t.log.Warn("retrying request", logger.Fields(
			logger.FieldHTTPMethod, req.Method,
			logger.FieldURL, req.URL,
			logger.FieldAttempt, attempt,
			"backoff_ms", backoff.Milliseconds(),
			logger.FieldError, err.Error(),
		))
	}

	resp, err := resilience.Retry(ctx, retry, func(int) (*Response, error) {
		resp, err := t.send(ctx, req)
		if err == nil && RetryableStatus(resp.StatusCode) {
			return nil, &retryStatus{resp: resp}
		}
		return resp, err
	})
	var rs *retryStatus
	if errors.As(err, &rs) {
		return rs.resp, nil
	}
	if err != nil {
		return nil, Classify(ctx, req, err)
	}
	return resp, nil
}

// DoAsync sends req on the transport executor.
func (t *Resty) DoAsync(ctx context.Context, req *Request, cb Callback) {
	t.executor.Submit(ctx, req, t.Do, cb)
}

// Client returns the underlying resty client.
func (t *Resty) Client() *resty.Client { return t.client }

func (t *Resty) send(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().SetContext(ctx)
	if len(req.Header) > 0 {
		r.SetHeaderMultiValues(req.Header)
	}
	if len(req.Cookies) > 0 {
		r.SetCookies(req.Cookies)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}
	if t.config.Auth != nil {
		t.config.Auth.Apply(r.Header)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, Classify(ctx, req, err)
	}

	t.log.Debug("response received", logger.Fields(
		logger.FieldHTTPMethod, req.Method,
		logger.FieldURL, req.URL,
		logger.FieldStatus, resp.StatusCode(),
	))

	out := NewResponse(resp.StatusCode(), resp.Header(), resp.Body(), t.codecs)
	out.Request = req
	return out, nil
}

// restyLogger routes resty's printf-style logging into the kit logger.
type restyLogger struct{ l *logger.Logger }

func (r restyLogger) Errorf(format string, v ...interface{}) { r.l.Error(fmt.Sprintf(format, v...)) }

func (r restyLogger) Warnf(format string, v ...interface{}) { r.l.Warn(fmt.Sprintf(format, v...)) }

func (r restyLogger) Debugf(format string, v ...interface{}) { r.l.Debug(fmt.Sprintf(format, v...)) }
