package transport

import (
	"fmt"
	"time"

	"github.com/kbukum/restproxy/resilience"
	"github.com/kbukum/restproxy/version"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultMaxAsync       = 64
)

// Config configures a transport.
type Config struct {
	// Name identifies the transport in logs, breaker and executor names.
	Name string `yaml:"name" mapstructure:"name"`

	// ConnectTimeout bounds dialing. Defaults to 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// ReadTimeout bounds the whole exchange once connected. Defaults to 30s.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`

	// UserAgent is sent when a request sets none. Defaults to
	// "restproxy/<version>".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are default headers; request headers with the same name win.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth configures authentication applied to every request.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`

	// TLS configures the client TLS settings.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// HTTP2 enables HTTP/2 on TLS connections.
	HTTP2 bool `yaml:"http2" mapstructure:"http2"`

	// CookieJar keeps cookies set by the server across requests.
	CookieJar bool `yaml:"cookie_jar" mapstructure:"cookie_jar"`

	// MaxAsync bounds concurrent async calls. Defaults to 64.
	MaxAsync int `yaml:"max_async" mapstructure:"max_async" validate:"gte=0"`

	// Retry configures transport retries. Nil disables them.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`

	// CircuitBreaker configures the breaker. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`

	// RateLimiter configures client-side rate limiting. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limiter" mapstructure:"rate_limiter"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	if c.MaxAsync <= 0 {
		c.MaxAsync = defaultMaxAsync
	}
	if c.Retry != nil {
		c.Retry.ApplyDefaults()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("transport: timeouts must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
