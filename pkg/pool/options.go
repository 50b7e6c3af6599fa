package pool

import (
	"log/slog"
	"time"
)

const (
	// DefaultTTL is how long a handle lives after it was opened.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxSize is the maximum number of live handles.
	DefaultMaxSize = 20
)

type options struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Pool.
type Option func(*options)

// WithTTL sets the handle lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithMaxSize sets the maximum number of live handles. Non-positive values keep the default.
func WithMaxSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.maxSize = size
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics reports pool activity to Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func defaultOptions() *options {
	return &options{
		ttl:     DefaultTTL,
		maxSize: DefaultMaxSize,
		now:     time.Now,
		logger:  slog.Default(),
	}
}
