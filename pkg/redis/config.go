package redis

import "time"

// Config describes the Redis connection backing the distributed tenant cache tier.
// An empty ConnectionURL means no distributed tier.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                                  // "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`        // connection attempts before giving up
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`       // pause between attempts
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`     // overall budget for Connect
	OpTimeout      time.Duration `env:"REDIS_OPERATION_TIMEOUT" envDefault:"500ms"` // per-call budget for Store operations
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
