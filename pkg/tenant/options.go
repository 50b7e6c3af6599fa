package tenant

import (
	"log/slog"
	"time"
)

type serviceOptions struct {
	logger        *slog.Logger
	cacheTTL      time.Duration
	requireActive bool
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCacheTTL sets the distributed cache TTL for tenants registered by the service.
// Non-positive values use the cache default.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.cacheTTL = ttl
	}
}

// WithRequireActive rejects inactive tenants with ErrInactiveTenant.
func WithRequireActive(require bool) ServiceOption {
	return func(o *serviceOptions) {
		o.requireActive = require
	}
}
