package client

import (
	"github.com/kbukum/restproxy/config"
	"github.com/kbukum/restproxy/di"
	"github.com/kbukum/restproxy/resilience"
)

// Provide registers a lazily built client of descriptor type T under key.
// The client is built on first resolve from cfg; configure adjusts the
// builder before it builds, for example to register compute functions.
//
//	_ = client.Provide[UsersAPI](c, di.ClientKey("users"), cfg.Clients["users"])
//	users := di.MustResolve[*UsersAPI](c, di.ClientKey("users"))
func Provide[T any](c di.Container, key string, cfg config.ClientConfig, configure ...func(*Builder)) error {
	return c.RegisterLazy(key, func() (*T, error) {
		b, err := FromConfig(key, cfg)
		if err != nil {
			return nil, err
		}
		for _, fn := range configure {
			fn(b)
		}
		return New[T](b)
	}, di.WithRetry(resilience.RetryConfig{MaxAttempts: 1}))
}
