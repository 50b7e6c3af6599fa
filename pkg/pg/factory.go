package pg

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// Factory opens one pgx pool per tenant database. It satisfies pool.Factory[*pgxpool.Pool].
type Factory struct {
	cfg Config
	log *slog.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

func WithLogger(l *slog.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.log = l
		}
	}
}

func NewFactory(cfg Config, opts ...FactoryOption) *Factory {
	f := &Factory{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open creates a pool for connectionURL, verifies it and applies migrations when configured.
func (f *Factory) Open(ctx context.Context, connectionURL string) (*pgxpool.Pool, error) {
	if connectionURL == "" {
		return nil, ErrEmptyConnectionString
	}

	connConfig, err := f.poolConfig(connectionURL)
	if err != nil {
		return nil, err
	}

	conn, err := pgxpool.NewWithConfig(ctx, connConfig)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}

	if f.cfg.PingOnOpen {
		if err := conn.Ping(ctx); err != nil {
			conn.Close()
			return nil, errors.Join(ErrFailedToOpenDBConnection, err)
		}
	}

	if f.cfg.MigrationsPath != "" {
		if err := Migrate(ctx, conn, f.cfg.MigrationsPath, f.cfg.MigrationsTable, f.log); err != nil {
			conn.Close()
			return nil, err
		}
	}

	f.log.DebugContext(ctx, "opened tenant database pool",
		slog.String("host", connConfig.ConnConfig.Host),
		slog.String("database", connConfig.ConnConfig.Database),
		logger.Component("pg"),
	)
	return conn, nil
}

// Dispose closes the pool, waiting for acquired connections to be released.
func (f *Factory) Dispose(_ context.Context, conn *pgxpool.Pool) error {
	if conn != nil {
		conn.Close()
	}
	return nil
}

func (f *Factory) poolConfig(connectionURL string) (*pgxpool.Config, error) {
	connConfig, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if f.cfg.MaxConns > 0 {
		connConfig.MaxConns = f.cfg.MaxConns
	}
	if f.cfg.MinConns > 0 {
		connConfig.MinConns = f.cfg.MinConns
	}
	if f.cfg.HealthCheckPeriod > 0 {
		connConfig.HealthCheckPeriod = f.cfg.HealthCheckPeriod
	}
	if f.cfg.MaxConnIdleTime > 0 {
		connConfig.MaxConnIdleTime = f.cfg.MaxConnIdleTime
	}
	if f.cfg.MaxConnLifetime > 0 {
		connConfig.MaxConnLifetime = f.cfg.MaxConnLifetime
	}
	return connConfig, nil
}
