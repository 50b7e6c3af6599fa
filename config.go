package tenancy

import (
	"time"

	"github.com/dmitrymomot/tenancy/pkg/config"
	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/mongo"
	"github.com/dmitrymomot/tenancy/pkg/pg"
	"github.com/dmitrymomot/tenancy/pkg/redis"
)

// Config holds every setting New needs. Nested configs read their own variables.
type Config struct {
	Logger   logger.Config
	Mongo    mongo.Config
	Redis    redis.Config
	Postgres pg.Config

	PoolTTL     time.Duration `env:"TENANT_POOL_TTL" envDefault:"30m"`
	PoolMaxSize int           `env:"TENANT_POOL_MAX_SIZE" envDefault:"20"`

	CacheTTL       time.Duration `env:"TENANT_CACHE_TTL" envDefault:"3600s"`
	CacheKeyPrefix string        `env:"TENANT_CACHE_KEY_PREFIX" envDefault:"tenants"`

	// VaultKey is a base64 encoded 32 byte key. Empty means a random key per process.
	VaultKey      string `env:"TENANT_VAULT_KEY"`
	RequireActive bool   `env:"TENANT_REQUIRE_ACTIVE" envDefault:"false"`

	MetricsNamespace string `env:"TENANT_METRICS_NAMESPACE" envDefault:"tenancy"`
}

// LoadConfig reads Config from the environment.
func LoadConfig(opts ...config.Option) (Config, error) {
	return config.Load[Config](opts...)
}
