package transport

import "net/http"

// AuthType identifies the authentication method.
type AuthType string

const (
	// AuthNone disables authentication.
	AuthNone AuthType = ""
	// AuthBearer uses Bearer token authentication.
	AuthBearer AuthType = "bearer"
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic AuthType = "basic"
	// AuthAPIKey sends an API key in a header.
	AuthAPIKey AuthType = "api_key"
)

// AuthConfig configures request authentication. It never overrides an
// Authorization (or API key) header already set on the request, so header
// rules and call-site header parameters keep precedence.
type AuthConfig struct {
	Type     AuthType `yaml:"type" mapstructure:"type"`
	Token    string   `yaml:"token" mapstructure:"token"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
	Key      string   `yaml:"key" mapstructure:"key"`
	// Header is the API key header name. Defaults to "X-API-Key".
	Header string `yaml:"header" mapstructure:"header"`
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent via header.
func APIKeyAuth(key, header string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, Header: header}
}

// Apply sets the authentication header on h unless it is already present.
func (a *AuthConfig) Apply(h http.Header) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		if h.Get("Authorization") == "" {
			h.Set("Authorization", "Bearer "+a.Token)
		}
	case AuthBasic:
		if h.Get("Authorization") == "" {
			r := http.Request{Header: h}
			r.SetBasicAuth(a.Username, a.Password)
		}
	case AuthAPIKey:
		name := a.Header
		if name == "" {
			name = "X-API-Key"
		}
		if h.Get(name) == "" {
			h.Set(name, a.Key)
		}
	}
}
