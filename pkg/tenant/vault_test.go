package tenant_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/tenant"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	rec := workspaceRecord("t1", "w1", "s")
	rec.VectorStore = &tenant.VectorStoreConfig{URL: "https://vectors", APIKey: "k"}
	rec.Workspace.Scope = "api://x/.default"

	snap := tenant.Sanitize(rec)
	assert.Equal(t, tenant.Snapshot{
		ID:     "t1",
		Name:   "Tenant t1",
		Active: true,
		DB:     "postgres://t1",
		Workspace: tenant.WorkspaceInfo{
			ID:       "w1",
			ClientID: "client-t1",
			Scope:    "api://x/.default",
		},
		VectorStore: tenant.VectorStoreInfo{URL: "https://vectors"},
	}, snap)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "clientSecret")
	assert.NotContains(t, string(raw), "apiKey")

	// input untouched
	assert.Equal(t, "s", rec.Workspace.ClientSecret)

	t.Run("inactive flag", func(t *testing.T) {
		t.Parallel()
		assert.False(t, tenant.Sanitize(tenant.Record{ID: "x", Active: boolPtr(false)}).Active)
		assert.True(t, tenant.Sanitize(tenant.Record{ID: "x", Active: boolPtr(true)}).Active)
	})

	t.Run("no integrations", func(t *testing.T) {
		t.Parallel()
		raw, err := json.Marshal(tenant.Sanitize(tenant.Record{ID: "x", DB: "postgres://x"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"x","active":true,"db":"postgres://x"}`, string(raw))
	})
}

func TestVault_Capture(t *testing.T) {
	t.Parallel()

	t.Run("seals present secrets", func(t *testing.T) {
		t.Parallel()
		vault := newVault(t)
		rec := workspaceRecord("t1", "w1", "s")
		rec.VectorStore = &tenant.VectorStoreConfig{URL: "u", APIKey: "k"}

		bundle, err := vault.Capture(rec)
		require.NoError(t, err)
		assert.Equal(t, 2, bundle.Len())
		assert.Equal(t, []tenant.SecretField{tenant.FieldVectorStoreAPIKey, tenant.FieldWorkspaceClientSecret}, bundle.Fields())

		s, ok := bundle.Get(tenant.FieldWorkspaceClientSecret)
		require.True(t, ok)
		plain, err := s.ExportString()
		require.NoError(t, err)
		assert.Equal(t, "s", plain)
		assert.Equal(t, "t1", s.Scope())
	})

	t.Run("retains secrets across sanitized captures", func(t *testing.T) {
		t.Parallel()
		vault := newVault(t)
		rec := workspaceRecord("t1", "w1", "s")

		first, err := vault.Capture(rec)
		require.NoError(t, err)
		firstSecret, _ := first.Get(tenant.FieldWorkspaceClientSecret)

		sanitized := rec
		ws := *rec.Workspace
		ws.ClientSecret = ""
		sanitized.Workspace = &ws

		second, err := vault.Capture(sanitized)
		require.NoError(t, err)
		secondSecret, ok := second.Get(tenant.FieldWorkspaceClientSecret)
		require.True(t, ok)
		assert.Same(t, firstSecret, secondSecret)

		stored, ok := vault.Get("t1")
		require.True(t, ok)
		storedSecret, _ := stored.Get(tenant.FieldWorkspaceClientSecret)
		assert.Same(t, firstSecret, storedSecret)
	})

	t.Run("new value replaces old", func(t *testing.T) {
		t.Parallel()
		vault := newVault(t)
		_, err := vault.Capture(workspaceRecord("t1", "w1", "old"))
		require.NoError(t, err)
		bundle, err := vault.Capture(workspaceRecord("t1", "w1", "new"))
		require.NoError(t, err)

		s, _ := bundle.Get(tenant.FieldWorkspaceClientSecret)
		plain, err := s.ExportString()
		require.NoError(t, err)
		assert.Equal(t, "new", plain)
	})

	t.Run("earlier bundles are not mutated", func(t *testing.T) {
		t.Parallel()
		vault := newVault(t)
		first, err := vault.Capture(workspaceRecord("t1", "w1", "s"))
		require.NoError(t, err)
		_, err = vault.Capture(tenant.Record{ID: "t1", VectorStore: &tenant.VectorStoreConfig{APIKey: "k"}})
		require.NoError(t, err)

		assert.Equal(t, 1, first.Len())
		stored, _ := vault.Get("t1")
		assert.Equal(t, 2, stored.Len())
	})

	t.Run("records without secrets are remembered", func(t *testing.T) {
		t.Parallel()
		vault := newVault(t)
		_, ok := vault.Get("t1")
		assert.False(t, ok)

		bundle, err := vault.Capture(tenant.Record{ID: "t1", DB: "postgres://t1"})
		require.NoError(t, err)
		assert.Zero(t, bundle.Len())

		_, ok = vault.Get("t1")
		assert.True(t, ok)
	})
}

func TestVault_Clear(t *testing.T) {
	t.Parallel()

	vault := newVault(t)
	_, err := vault.Capture(workspaceRecord("t1", "w1", "s"))
	require.NoError(t, err)
	_, err = vault.Capture(workspaceRecord("t2", "w2", "s2"))
	require.NoError(t, err)

	vault.Clear("t1")

	_, ok := vault.Get("t1")
	assert.False(t, ok)
	_, ok = vault.Get("t2")
	assert.True(t, ok)

	bundle, err := vault.Capture(tenant.Record{ID: "t1"})
	require.NoError(t, err)
	assert.False(t, bundle.Has(tenant.FieldWorkspaceClientSecret))
}

func TestBundle_NeverLeaks(t *testing.T) {
	t.Parallel()

	vault := newVault(t)
	bundle, err := vault.Capture(workspaceRecord("t1", "w1", "super-secret"))
	require.NoError(t, err)
	s, _ := bundle.Get(tenant.FieldWorkspaceClientSecret)

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	log.Info("bundle", slog.Any("bundle", bundle), slog.Any("secret", s))
	assert.NotContains(t, buf.String(), "super-secret")
	assert.Contains(t, buf.String(), "workspace.clientSecret")

	assert.NotContains(t, fmt.Sprintf("%v %+v %#v", s, s, s), "super-secret")

	_, err = json.Marshal(map[string]any{"secret": s})
	assert.Error(t, err)
}

func TestSnapshot_LogValue(t *testing.T) {
	t.Parallel()

	snap := tenant.Snapshot{ID: "t1", DB: "postgres://app:hunter2@db:5432/t1", Workspace: tenant.WorkspaceInfo{ID: "w1"}}

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("tenant", slog.Any("tenant", snap))

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "app:xxxxx@db:5432")
	assert.Contains(t, out, `"workspace_id":"w1"`)
}
