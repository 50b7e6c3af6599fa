package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures a load.
type Option func(*options)

type options struct {
	prefix        string
	files         []string
	optionalFiles bool
	environment   map[string]string
}

// WithPrefix prepends prefix to every env tag, e.g. "BILLING_" turns REDIS_URL into BILLING_REDIS_URL.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvFiles loads the given .env files before parsing. A missing file is an error.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.files = append(o.files, files...)
		o.optionalFiles = false
	}
}

// WithOptionalEnvFiles is like WithEnvFiles but skips files that do not exist.
func WithOptionalEnvFiles(files ...string) Option {
	return func(o *options) {
		o.files = append(o.files, files...)
		o.optionalFiles = true
	}
}

// WithEnvironment parses from env instead of the process environment.
// Env files are ignored when it is set.
func WithEnvironment(env map[string]string) Option {
	return func(o *options) { o.environment = env }
}

// Load parses a new T from the environment.
func Load[T any](opts ...Option) (T, error) {
	var v T
	err := Parse(&v, opts...)
	return v, err
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](opts ...Option) T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return v
}

// Parse fills v, keeping values it already holds for variables that are unset
// and have no envDefault.
func Parse[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environment == nil {
		if err := loadFiles(o.files, o.optionalFiles); err != nil {
			return err
		}
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

func loadFiles(files []string, optional bool) error {
	for _, f := range files {
		if optional {
			if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
				continue
			}
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", f, err))
		}
	}
	return nil
}
