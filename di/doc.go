// Package di is a small dependency injection container used to hand out
// lazily built restproxy clients.
//
// Components are registered eagerly, lazily or as pre-built singletons.
// Lazy constructors run on first Resolve under a retry policy and a circuit
// breaker from the resilience package.
//
//	c := di.NewContainer()
//	_ = c.RegisterSingleton(di.Keys.Config, cfg)
//	_ = client.Provide[UsersAPI](c, di.ClientKey("users"), cfg.Clients["users"])
//	users := di.MustResolve[*UsersAPI](c, di.ClientKey("users"))
package di
