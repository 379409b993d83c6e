package server

import (
	"context"

	"github.com/kbukum/connector/component"
)

var _ component.Component = (*Component)(nil)

// Component adapts Server to the component lifecycle.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (c *Component) Server() *Server { return c.server }

// Name implements component.Component.
func (c *Component) Name() string { return "http-server" }

// Start implements component.Component.
func (c *Component) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

// Stop implements component.Component.
func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

// Health implements component.Component.
func (c *Component) Health(_ context.Context) component.Health {
	if !c.server.Started() {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: c.server.Addr()}
}
