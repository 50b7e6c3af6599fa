// Package config loads typed configuration structs from the process environment.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11. Fields are
// described with env tags; optional .env files are read first and never override
// variables already set in the environment.
//
//	type PoolConfig struct {
//		TTL     time.Duration `env:"TENANT_POOL_TTL" envDefault:"30m"`
//		MaxSize int           `env:"TENANT_POOL_MAX_SIZE" envDefault:"20"`
//	}
//
//	cfg, err := config.Load[PoolConfig](config.WithEnvFiles(".env"))
//
// Tests pass a fixed map through WithEnvironment instead of mutating the process
// environment.
package config
