package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to json at info level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))

		log.Debug("hidden")
		assert.Zero(t, buf.Len())

		log.Info("hello", slog.String("k", "v"))
		entry := decode(t, &buf)
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "v", entry["k"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithAttr(logger.Component("pool")))
		log.Info("x")
		assert.Equal(t, "pool", decode(t, &buf)["component"])
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				id, ok := ctx.Value(ctxKey{}).(string)
				return logger.TenantID(id), ok
			}),
		)

		log.InfoContext(context.WithValue(context.Background(), ctxKey{}, "t1"), "bound")
		assert.Equal(t, "t1", decode(t, &buf)["tenant_id"])

		buf.Reset()
		log.InfoContext(context.Background(), "unbound")
		_, ok := decode(t, &buf)["tenant_id"]
		assert.False(t, ok)
	})
}

func TestRedaction(t *testing.T) {
	t.Parallel()

	t.Run("default keys", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		log.Info("x", slog.String("client_secret", "s"), slog.String("API_KEY", "k"), slog.String("name", "n"))

		entry := decode(t, &buf)
		assert.Equal(t, "[REDACTED]", entry["client_secret"])
		assert.Equal(t, "[REDACTED]", entry["API_KEY"])
		assert.Equal(t, "n", entry["name"])
	})

	t.Run("custom keys replace defaults", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithRedactedKeys("token"))
		log.Info("x", slog.String("token", "t"), slog.String("password", "p"))

		entry := decode(t, &buf)
		assert.Equal(t, "[REDACTED]", entry["token"])
		assert.Equal(t, "p", entry["password"])
	})
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       logger.Config
		wantDebug bool
		wantJSON  bool
		wantEnv   string
	}{
		{"development defaults", logger.Config{Env: "development"}, true, false, "development"},
		{"production defaults", logger.Config{Env: "prod"}, false, true, "production"},
		{"explicit level and format win", logger.Config{Env: "production", Level: "debug", Format: "text"}, true, false, "production"},
		{"unknown env falls back to development", logger.Config{Env: "qa", Format: "json"}, true, true, "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := logger.FromConfig(tt.cfg, logger.WithOutput(&buf))

			log.Debug("dbg")
			assert.Equal(t, tt.wantDebug, buf.Len() > 0)

			buf.Reset()
			log.Info("info")
			out := strings.TrimSpace(buf.String())
			if tt.wantJSON {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &entry))
				assert.Equal(t, tt.wantEnv, entry["env"])
			} else {
				assert.Contains(t, out, "env="+tt.wantEnv)
			}
		})
	}
}
