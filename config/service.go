package config

import (
	"fmt"

	"github.com/kbukum/restproxy/logger"
	"github.com/kbukum/restproxy/observability"
)

// ServiceConfig contains the fields every process embedding restproxy clients
// needs. Projects extend it by embedding it in their own config structs:
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Billing config.ClientConfig `yaml:"billing" mapstructure:"billing"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`

	// Tracing enables OTLP tracing of client calls when set.
	Tracing *observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`

	// Metrics enables OTLP call metrics when set.
	Metrics *observability.MeterConfig `yaml:"metrics" mapstructure:"metrics"`
}

// GetServiceConfig returns the base ServiceConfig.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Embedding structs should call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	if c.Tracing != nil {
		c.Tracing.ServiceName = firstNonEmpty(c.Tracing.ServiceName, c.Name)
		c.Tracing.ServiceVersion = firstNonEmpty(c.Tracing.ServiceVersion, c.Version)
		c.Tracing.Environment = firstNonEmpty(c.Tracing.Environment, c.Environment)
	}
	if c.Metrics != nil {
		c.Metrics.ServiceName = firstNonEmpty(c.Metrics.ServiceName, c.Name)
		c.Metrics.ServiceVersion = firstNonEmpty(c.Metrics.ServiceVersion, c.Version)
		c.Metrics.Environment = firstNonEmpty(c.Metrics.Environment, c.Environment)
	}
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
