package client

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/restproxy/config"
	"github.com/kbukum/restproxy/errors"
)

var named = struct {
	sync.RWMutex
	providers map[string]any
}{providers: make(map[string]any)}

// RegisterNamedProvider makes a mapper, converter provider or codec
// available to the providers list of ClientConfig. A later registration
// under the same name replaces the earlier one.
func RegisterNamedProvider(name string, provider any) {
	named.Lock()
	defer named.Unlock()
	named.providers[name] = provider
}

// NamedProviders returns the registered provider names, sorted.
func NamedProviders() []string {
	named.RLock()
	defer named.RUnlock()
	names := make([]string, 0, len(named.providers))
	for n := range named.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupProvider(name string) (any, bool) {
	named.RLock()
	defer named.RUnlock()
	p, ok := named.providers[name]
	return p, ok
}

// FromConfig returns a builder set up from a client configuration. name
// becomes the transport name.
func FromConfig(name string, cfg config.ClientConfig) (*Builder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Configuration(fmt.Sprintf("client %s: %v", name, err)).WithCause(err)
	}

	b := NewBuilder().
		BaseURL(cfg.URL).
		TransportConfig(cfg.ToTransport(name))
	for _, pn := range cfg.Providers {
		p, ok := lookupProvider(pn)
		if !ok {
			return nil, errors.Configuration(fmt.Sprintf("client %s: unknown provider %q", name, pn))
		}
		b.Register(p)
	}
	if cfg.DisableDefaultMapper {
		b.DisableDefaultMapper()
	}
	if len(cfg.PropagateHeaders) > 0 {
		b.PropagateHeaders(cfg.PropagateHeaders...)
	}
	return b, nil
}
