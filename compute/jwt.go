package compute

import (
	"errors"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod is an HMAC signing algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// JWTConfig configures JWTBearer.
type JWTConfig struct {
	// Secret is the HMAC signing key.
	Secret   string        `yaml:"secret" mapstructure:"secret"`
	Method   SigningMethod `yaml:"method" mapstructure:"method"`
	Issuer   string        `yaml:"issuer" mapstructure:"issuer"`
	Subject  string        `yaml:"subject" mapstructure:"subject"`
	Audience []string      `yaml:"audience" mapstructure:"audience"`
	// TTL is the token lifetime (default: 5m).
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Claims are added to the registered claims.
	Claims map[string]any `yaml:"claims" mapstructure:"claims"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *JWTConfig) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
}

// Validate checks the configuration.
func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return errors.New("jwt: secret is required")
	}
	switch c.Method {
	case HS256, HS384, HS512:
		return nil
	default:
		return errors.New("jwt: unsupported signing method: " + string(c.Method))
	}
}

func (c *JWTConfig) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}

type bearer struct {
	cfg     JWTConfig
	now     func() time.Time
	mu      sync.Mutex
	token   string
	expires time.Time
}

// JWTBearer returns a compute function yielding "Bearer <token>". A token is
// reused until less than a tenth of its lifetime remains.
func JWTBearer(cfg JWTConfig) (func() (string, error), error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &bearer{cfg: cfg, now: time.Now}
	return b.value, nil
}

func (b *bearer) value() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.token != "" && b.expires.Sub(now) > b.cfg.TTL/10 {
		return "Bearer " + b.token, nil
	}

	expires := now.Add(b.cfg.TTL)
	claims := gojwt.MapClaims{
		"iat": gojwt.NewNumericDate(now),
		"exp": gojwt.NewNumericDate(expires),
		"jti": uuid.NewString(),
	}
	for k, v := range b.cfg.Claims {
		claims[k] = v
	}
	if b.cfg.Issuer != "" {
		claims["iss"] = b.cfg.Issuer
	}
	if b.cfg.Subject != "" {
		claims["sub"] = b.cfg.Subject
	}
	if len(b.cfg.Audience) > 0 {
		claims["aud"] = gojwt.ClaimStrings(b.cfg.Audience)
	}

	signed, err := gojwt.NewWithClaims(b.cfg.signingMethod(), claims).SignedString([]byte(b.cfg.Secret))
	if err != nil {
		return "", err
	}
	b.token, b.expires = signed, expires
	return "Bearer " + signed, nil
}
