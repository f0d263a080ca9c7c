package client

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/kbukum/restproxy/component"
	"github.com/kbukum/restproxy/transport"
)

// Component builds a client on Start and owns its HTTP transport.
type Component struct {
	name    string
	builder *Builder
	target  any

	mu        sync.RWMutex
	transport *transport.Component
	built     bool
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a component that builds the descriptor ptr points to
// with b when started.
func NewComponent(name string, b *Builder, ptr any) *Component {
	return &Component{name: name, builder: b, target: ptr}
}

// Name returns the component name.
func (c *Component) Name() string {
	return "client:" + c.name
}

// Start creates the transport and binds the client.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.builder.transport == nil {
		cfg := c.builder.tcfg
		if cfg.Name == "" {
			cfg.Name = c.name
		}
		tc := transport.NewComponent(cfg, transport.WithLogger(c.builder.logger().WithComponent("transport")))
		if err := tc.Start(ctx); err != nil {
			return err
		}
		c.transport = tc
		c.builder.Transport(tc.Transport())
	}
	if err := c.builder.Build(c.target); err != nil {
		return err
	}
	c.built = true
	return nil
}

// Stop releases the transport's idle connections.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.transport != nil {
		return c.transport.Stop(ctx)
	}
	return nil
}

// Health reports unhealthy until the client is built, then the transport's
// health.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.built:
		h.Status, h.Message = component.StatusUnhealthy, "not built"
	case c.transport != nil:
		th := c.transport.Health(ctx)
		h.Status, h.Message = th.Status, th.Message
	}
	return h
}

// Describe returns the component summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "rest-client",
		Details: fmt.Sprintf("%s -> %s", reflect.TypeOf(c.target).Elem().Name(), c.builder.baseURL),
	}
}
