package provider

import "go.uber.org/zap"

type registryConfig struct {
	logger *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

// WithLogger sets the logger handed to built-in runtimes.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(c *registryConfig) { c.logger = l }
}
