package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"

	"github.com/kbukum/restproxy/codec"
	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/resilience"
)

// errServerStatus marks a 5xx response as a breaker failure. It never
// escapes Do.
var errServerStatus = errors.New("server error status")

// Option configures a transport.
type Option func(*options)

type options struct {
	codecs *codec.Registry
	log    *logger.Logger
	client *http.Client
}

// WithCodecs sets the codecs responses decode through.
func WithCodecs(r *codec.Registry) Option { return func(o *options) { o.codecs = r } }

// WithLogger sets the transport logger.
func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

// WithHTTPClient replaces the built *http.Client. Timeouts, TLS and retries
// from Config are then the caller's responsibility.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.client = c } }

func buildOptions(name string, opts []Option) options {
	o := options{codecs: codec.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("transport").WithFields(logger.Fields("transport", name))
	}
	return o
}

// HTTP is the net/http transport.
type HTTP struct {
	client   *http.Client
	config   Config
	codecs   *codec.Registry
	log      *logger.Logger
	cb       *resilience.CircuitBreaker
	rl       *resilience.RateLimiter
	executor *Executor
}

var _ Transport = (*HTTP)(nil)

// New creates an HTTP transport.
func New(cfg Config, opts ...Option) (*HTTP, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(cfg.Name, opts)

	t := &HTTP{
		config:   cfg,
		codecs:   o.codecs,
		log:      o.log,
		executor: NewExecutor(cfg.Name+"-async", cfg.MaxAsync),
	}

	if o.client != nil {
		t.client = o.client
	} else {
		client, err := newHTTPClient(cfg, t.log)
		if err != nil {
			return nil, err
		}
		t.client = client
	}

	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.Name == "" {
			cbCfg.Name = cfg.Name
		}
		cbCfg.OnStateChange = func(name string, from, to resilience.State) {
			t.log.Info("circuit breaker state changed", logger.Fields("breaker", name, "from", from.String(), "to", to.String()))
		}
		t.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	if cfg.RateLimiter != nil {
		t.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	return t, nil
}

func newHTTPClient(cfg Config, log *logger.Logger) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	base.TLSHandshakeTimeout = cfg.ConnectTimeout

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		base.TLSClientConfig = tlsCfg
	}
	if cfg.HTTP2 {
		if err := http2.ConfigureTransport(base); err != nil {
			return nil, fmt.Errorf("transport: configure http2: %w", err)
		}
	}

	client := &http.Client{Transport: base, Timeout: cfg.ReadTimeout}
	if cfg.Retry != nil {
		client = NewRetryableClient(client, *cfg.Retry, log)
	}
	if cfg.CookieJar {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		client.Jar = jar
	}
	return client, nil
}

// Do sends req and returns the response, whatever its status.
func (t *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.rl != nil {
		if err := t.rl.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, Classify(ctx, req, err)
			}
			return nil, NewRejectedError(req, err)
		}
	}

	if t.cb == nil {
		return t.send(ctx, req)
	}

	var resp *Response
	err := t.cb.Execute(func() error {
		var sendErr error
		resp, sendErr = t.send(ctx, req)
		if sendErr == nil && resp.StatusCode >= 500 {
			return errServerStatus
		}
		return sendErr
	})
	switch {
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, resilience.ErrCircuitOpen):
		return nil, NewRejectedError(req, err)
	}
	return resp, err
}

// DoAsync sends req on the transport executor.
func (t *HTTP) DoAsync(ctx context.Context, req *Request, cb Callback) {
	t.executor.Submit(ctx, req, t.Do, cb)
}

// CloseIdleConnections releases idle keep-alive connections.
func (t *HTTP) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// Available reports whether requests are currently let through.
func (t *HTTP) Available() bool {
	return t.cb == nil || t.cb.State() != resilience.StateOpen
}

// Unwrap returns the underlying *http.Client.
func (t *HTTP) Unwrap() *http.Client {
	return t.client
}

func (t *HTTP) send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, Classify(ctx, req, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Classify(ctx, req, fmt.Errorf("read response body: %w", err))
	}

	t.log.Debug("response received", logger.Fields(
		logger.FieldHTTPMethod, req.Method,
		logger.FieldURL, req.URL,
		logger.FieldStatus, resp.StatusCode,
	))

	out := NewResponse(resp.StatusCode, resp.Header, body, t.codecs)
	out.Request = req
	return out, nil
}

func (t *HTTP) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, NewInvalidError(req, err)
	}

	for k, v := range t.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, vals := range req.Header {
		httpReq.Header[k] = append([]string(nil), vals...)
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.config.UserAgent)
	}
	t.config.Auth.Apply(httpReq.Header)
	for _, c := range req.Cookies {
		httpReq.AddCookie(c)
	}
	return httpReq, nil
}
