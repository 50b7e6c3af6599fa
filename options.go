package tenancy

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/tenancy/pkg/pool"
	"github.com/dmitrymomot/tenancy/pkg/tenant"
)

type options struct {
	logger     *slog.Logger
	directory  tenant.Directory
	store      tenant.Store
	factory    pool.Factory[*pgxpool.Pool]
	registerer prometheus.Registerer
}

// Option configures New.
type Option func(*options)

// WithLogger replaces the logger built from Config.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDirectory uses dir instead of connecting to MongoDB.
func WithDirectory(dir tenant.Directory) Option {
	return func(o *options) {
		o.directory = dir
	}
}

// WithStore uses store as the distributed cache tier instead of connecting to Redis.
func WithStore(store tenant.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithHandleFactory replaces the PostgreSQL handle factory.
func WithHandleFactory(f pool.Factory[*pgxpool.Pool]) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithRegisterer registers pool and cache metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}
