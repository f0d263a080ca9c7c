package transport

import (
	"context"
	"fmt"

	"github.com/kbukum/restproxy/component"
)

// Component manages an HTTP transport's lifecycle.
type Component struct {
	config    Config
	opts      []Option
	transport *HTTP
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a transport component. The transport is created in Start.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name == "" {
		return "transport"
	}
	return "transport:" + c.config.Name
}

// Start creates the transport.
func (c *Component) Start(_ context.Context) error {
	t, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.transport = t
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(_ context.Context) error {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

// Health reports unhealthy before Start and degraded while the breaker is open.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.transport == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case !c.transport.Available():
		h.Status, h.Message = component.StatusDegraded, "circuit open"
	}
	return h
}

// Describe returns the component summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "transport",
		Details: fmt.Sprintf("connect=%s read=%s http2=%v", c.config.ConnectTimeout, c.config.ReadTimeout, c.config.HTTP2),
	}
}

// Transport returns the transport. Must be called after Start.
func (c *Component) Transport() *HTTP {
	return c.transport
}
