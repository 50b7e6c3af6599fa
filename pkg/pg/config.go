package pg

import "time"

// Config sizes the connection pool opened for each tenant database. The connection
// URL itself comes from the tenant record.
type Config struct {
	MaxConns          int32         `env:"PG_TENANT_MAX_CONNS" envDefault:"5"`
	MinConns          int32         `env:"PG_TENANT_MIN_CONNS" envDefault:"0"`
	HealthCheckPeriod time.Duration `env:"PG_TENANT_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_TENANT_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	MaxConnLifetime   time.Duration `env:"PG_TENANT_MAX_CONN_LIFETIME" envDefault:"30m"`

	// PingOnOpen verifies credentials before a handle is pooled.
	PingOnOpen bool `env:"PG_TENANT_PING_ON_OPEN" envDefault:"true"`

	// Migrations run on every open when MigrationsPath is set.
	MigrationsPath  string `env:"PG_TENANT_MIGRATIONS_PATH"`
	MigrationsTable string `env:"PG_TENANT_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}
