package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/resilience"
)

func newTestTransport(t *testing.T, cfg Config) *HTTP {
	t.Helper()
	tr, err := New(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	return tr
}

func TestHTTP_Do_SendsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c, _ := r.Cookie("session")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Echo-Header", r.Header.Get("X-Trace"))
		w.Header().Set("X-Echo-Default", r.Header.Get("X-Default"))
		w.Header().Set("X-Echo-Cookie", c.Value)
		w.Header().Set("X-Echo-Auth", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"body":"` + string(body) + `"}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{
		Headers: map[string]string{"X-Default": "d"},
		Auth:    BearerAuth("tok"),
	})
	resp, err := tr.Do(context.Background(), &Request{
		Method:  http.MethodPost,
		URL:     srv.URL + "/echo",
		Header:  http.Header{"X-Trace": {"t-1"}},
		Cookies: []*http.Cookie{{Name: "session", Value: "s-1"}},
		Body:    []byte("hello"),
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	for h, want := range map[string]string{
		"X-Echo-Header":  "t-1",
		"X-Echo-Default": "d",
		"X-Echo-Cookie":  "s-1",
		"X-Echo-Auth":    "Bearer tok",
	} {
		if got := resp.Header.Get(h); got != want {
			t.Errorf("%s: expected %q, got %q", h, want, got)
		}
	}

	var out struct{ Body string }
	if err := resp.Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Body != "hello" {
		t.Errorf("expected echoed body, got %q", out.Body)
	}
}

func TestHTTP_AuthDoesNotOverrideHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Authorization")))
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{Auth: BearerAuth("config")})
	resp, err := tr.Do(context.Background(), &Request{
		Method: http.MethodGet, URL: srv.URL,
		Header: http.Header{"Authorization": {"Bearer call-site"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "Bearer call-site" {
		t.Errorf("request header must win, got %q", resp.Body)
	}
}

func TestHTTP_UserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo-UA", r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{UserAgent: "inventory/2"})
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if got := resp.Header.Get("X-Echo-UA"); got != "inventory/2" {
		t.Errorf("expected configured user agent, got %q", got)
	}

	resp, err = tr.Do(context.Background(), &Request{
		Method: http.MethodGet,
		URL:    srv.URL,
		Header: http.Header{"User-Agent": {"caller/1"}},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if got := resp.Header.Get("X-Echo-UA"); got != "caller/1" {
		t.Errorf("request header should win, got %q", got)
	}

	def := newTestTransport(t, Config{})
	resp, err = def.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if got := resp.Header.Get("X-Echo-UA"); !strings.HasPrefix(got, "restproxy/") {
		t.Errorf("expected default restproxy user agent, got %q", got)
	}
}

func TestHTTP_Do_ErrorStatusIsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := newTestTransport(t, Config{}).Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("non-2xx must not be a transport error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound || !resp.IsError() {
		t.Errorf("expected 404 response, got %d", resp.StatusCode)
	}
}

func TestHTTP_Do_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestTransport(t, Config{}).Do(context.Background(), &Request{Method: http.MethodGet, URL: url})
	if !IsConnection(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestHTTP_Do_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := newTestTransport(t, Config{}).Do(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
	if !IsCancelled(err) {
		t.Errorf("expected cancelled error, got %v", err)
	}
}

func TestHTTP_Retry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{Retry: &resilience.RetryConfig{
		MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond,
	}})
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected success on third attempt, got %d after %d calls", resp.StatusCode, calls)
	}
}

func TestHTTP_RetryExhaustedReturnsLastResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{Retry: &resilience.RetryConfig{
		MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond,
	}})
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("expected last response, got error %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestHTTP_CircuitBreakerRejects(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{CircuitBreaker: &resilience.CircuitBreakerConfig{
		MaxFailures: 1, Timeout: time.Hour,
	}})
	req := &Request{Method: http.MethodGet, URL: srv.URL}
	resp, err := tr.Do(context.Background(), req)
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("first call should return the 500 response, got %v %v", resp, err)
	}
	if _, err := tr.Do(context.Background(), req); !IsRejected(err) {
		t.Errorf("expected rejection while open, got %v", err)
	}
	if tr.Available() {
		t.Error("transport should report unavailable")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("open breaker must not reach the server, calls=%d", calls)
	}
}

func TestHTTP_DoAsync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("async"))
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{MaxAsync: 2})
	done := make(chan *Response, 1)
	tr.DoAsync(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL}, func(r *Response, err error) {
		if err != nil {
			t.Errorf("unexpected error %v", err)
		}
		done <- r
	})

	select {
	case r := <-done:
		if string(r.Body) != "async" {
			t.Errorf("unexpected body %q", r.Body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestHTTP_CookieJar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("jar"); err == nil {
			_, _ = w.Write([]byte(c.Value))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "jar", Value: "kept"})
	}))
	defer srv.Close()

	tr := newTestTransport(t, Config{CookieJar: true})
	req := &Request{Method: http.MethodGet, URL: srv.URL}
	if _, err := tr.Do(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	resp, err := tr.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "kept" {
		t.Errorf("expected cookie replayed by jar, got %q", resp.Body)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{TLS: &TLSConfig{CertFile: "c.pem"}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for cert without key")
	}
	if cfg.MaxAsync != defaultMaxAsync || cfg.Name != "http" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
