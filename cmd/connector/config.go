package main

import (
	"fmt"

	"github.com/kbukum/connector/config"
	"github.com/kbukum/connector/connector"
	"github.com/kbukum/connector/httpclient"
	"github.com/kbukum/connector/observability"
	"github.com/kbukum/connector/redis"
	"github.com/kbukum/connector/server"
)

// Config is the connector binary's configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	HTTP          httpclient.Config          `yaml:"http" mapstructure:"http"`
	Redis         redis.Config               `yaml:"redis" mapstructure:"redis"`
	Server        server.Config              `yaml:"server" mapstructure:"server"`
	Observability observability.Config       `yaml:"observability" mapstructure:"observability"`
	Endpoints     []connector.EndpointConfig `yaml:"endpoints" mapstructure:"endpoints"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	// stdout carries the call reports
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	c.ServiceConfig.ApplyDefaults()
	c.HTTP.ApplyDefaults()
	if c.Redis.Enabled {
		c.Redis.ApplyDefaults()
	}
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
	for i := range c.Endpoints {
		c.Endpoints[i].ApplyDefaults()
	}
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if c.Redis.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Endpoints))
	for i := range c.Endpoints {
		e := &c.Endpoints[i]
		if err := e.Validate(); err != nil {
			return fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if seen[e.Name] {
			return fmt.Errorf("endpoints[%d]: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// Endpoint returns the configured endpoint called name, or one with
// defaults when none is configured.
func (c *Config) Endpoint(name string) connector.EndpointConfig {
	for _, e := range c.Endpoints {
		if e.Name == name {
			return e
		}
	}
	return connector.NewEndpointConfig(name)
}
