package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/kbukum/restproxy/resilience"
	"github.com/kbukum/restproxy/transport"
	"github.com/kbukum/restproxy/validation"
)

// ClientConfig configures one declarative client, keyed by the interface
// name in Config.Clients.
type ClientConfig struct {
	// URL is the base URL every request path is joined to.
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`

	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout" validate:"gte=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`

	// Providers lists provider names registered with client.RegisterNamedProvider.
	Providers []string `yaml:"providers" mapstructure:"providers"`

	// DisableDefaultMapper skips registration of the status >= 400 mapper.
	DisableDefaultMapper bool `yaml:"disable_default_mapper" mapstructure:"disable_default_mapper"`

	// PropagateHeaders installs a default headers factory copying these
	// inbound headers onto outgoing requests.
	PropagateHeaders []string `yaml:"propagate_headers" mapstructure:"propagate_headers"`

	// Headers are static headers the transport adds to every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	MaxAsync int `yaml:"max_async" mapstructure:"max_async" validate:"gte=0"`

	Auth           *transport.AuthConfig            `yaml:"auth" mapstructure:"auth"`
	TLS            *transport.TLSConfig             `yaml:"tls" mapstructure:"tls"`
	HTTP2          bool                             `yaml:"http2" mapstructure:"http2"`
	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
}

// ApplyDefaults fills zero-value fields.
func (c *ClientConfig) ApplyDefaults() {
	if c.Retry != nil {
		c.Retry.ApplyDefaults()
	}
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToTransport converts the client settings to a transport configuration
// named after the client.
func (c *ClientConfig) ToTransport(name string) transport.Config {
	cfg := transport.Config{
		Name:           name,
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		Headers:        c.Headers,
		Auth:           c.Auth,
		TLS:            c.TLS,
		HTTP2:          c.HTTP2,
		MaxAsync:       c.MaxAsync,
		Retry:          c.Retry,
		CircuitBreaker: c.CircuitBreaker,
		RateLimiter:    c.RateLimiter,
	}
	cfg.ApplyDefaults()
	return cfg
}

// Config is the top-level configuration of a process using restproxy clients.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Clients map[string]ClientConfig `yaml:"clients" mapstructure:"clients"`
}

// ApplyDefaults applies defaults to the service and every client.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	for name, cc := range c.Clients {
		cc.ApplyDefaults()
		c.Clients[name] = cc
	}
}

// Validate validates the service settings and every client.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	for _, name := range c.ClientNames() {
		cc := c.Clients[name]
		if err := cc.Validate(); err != nil {
			return fmt.Errorf("config.clients.%s: %w", name, err)
		}
	}
	return nil
}

// Client returns the configuration of the named client.
func (c *Config) Client(name string) (ClientConfig, bool) {
	cc, ok := c.Clients[name]
	return cc, ok
}

// ClientNames returns the configured client names in sorted order.
func (c *Config) ClientNames() []string {
	names := make([]string, 0, len(c.Clients))
	for name := range c.Clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads configuration for serviceName, then applies defaults and
// validates it.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
