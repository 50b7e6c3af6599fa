package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

const (
	envDevelopment = "development"
	envStaging     = "staging"
	envProduction  = "production"
)

// Config is the environment-driven logger configuration.
type Config struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Format  string `env:"LOG_FORMAT" envDefault:"json"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"tenancy"`
}

// Option configures logger creation.
type Option func(*config)

type config struct {
	level          slog.Level
	format         Format
	output         io.Writer
	attrs          []slog.Attr
	handlerOptions *slog.HandlerOptions
	extractors     []ContextExtractor
	redact         map[string]struct{}
}

// DefaultRedactedKeys are masked unless WithRedactedKeys replaces them.
var DefaultRedactedKeys = []string{"client_secret", "api_key", "password", "secret"}

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets output format. Unknown formats panic at startup.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets the destination; nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithHandlerOptions overrides the slog handler options built from the level.
func WithHandlerOptions(opts *slog.HandlerOptions) Option {
	return func(c *config) {
		if opts != nil {
			c.handlerOptions = opts
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add attributes from the record's context.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// WithRedactedKeys replaces the set of attribute keys whose values are masked.
func WithRedactedKeys(keys ...string) Option {
	return func(c *config) {
		c.redact = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			c.redact[strings.ToLower(k)] = struct{}{}
		}
	}
}

// WithEnvironment applies per-environment defaults: text and debug level for development,
// JSON and info level otherwise. "prod" and "stage" are accepted aliases.
func WithEnvironment(env, service string) Option {
	return func(c *config) {
		switch env {
		case envProduction, "prod":
			env = envProduction
			c.level, c.format = slog.LevelInfo, FormatJSON
		case envStaging, "stage":
			env = envStaging
			c.level, c.format = slog.LevelInfo, FormatJSON
		default:
			env = envDevelopment
			c.level, c.format = slog.LevelDebug, FormatText
		}
		if service != "" {
			c.attrs = append(c.attrs, slog.String("service", service))
		}
		c.attrs = append(c.attrs, slog.String("env", env))
	}
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

func defaultConfig() *config {
	c := &config{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	WithRedactedKeys(DefaultRedactedKeys...)(c)
	return c
}

// New creates a configured slog.Logger.
func New(opts ...Option) *slog.Logger {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := cfg.handlerOptions
	if handlerOpts == nil {
		handlerOpts = &slog.HandlerOptions{Level: cfg.level}
	}
	if len(cfg.redact) > 0 && handlerOpts.ReplaceAttr == nil {
		handlerOpts.ReplaceAttr = redactAttr(cfg.redact)
	}

	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}

	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	return slog.New(NewLogHandlerDecorator(handler, cfg.extractors...))
}

// FromConfig creates a logger from an environment-loaded Config plus extra options.
// Explicit Level and Format values win over the environment defaults.
func FromConfig(cfg Config, opts ...Option) *slog.Logger {
	base := []Option{WithEnvironment(cfg.Env, cfg.Service)}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err == nil && cfg.Level != "" {
		base = append(base, WithLevel(level))
	}
	switch Format(strings.ToLower(cfg.Format)) {
	case FormatJSON:
		base = append(base, WithFormat(FormatJSON))
	case FormatText:
		base = append(base, WithFormat(FormatText))
	}

	return New(append(base, opts...)...)
}

func redactAttr(keys map[string]struct{}) func(groups []string, a slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		if _, ok := keys[strings.ToLower(a.Key)]; ok {
			return slog.String(a.Key, "[REDACTED]")
		}
		return a
	}
}
