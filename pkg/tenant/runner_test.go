package tenant_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/tenant"
)

func TestRunWorkspace(t *testing.T) {
	t.Parallel()

	t.Run("scope exposes the binding", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, []tenant.Record{workspaceRecord("t1", "w1", "s")})

		err := tenant.RunWorkspace(context.Background(), f.svc, "w1", func(ctx context.Context, scope tenant.Scope[*handle]) error {
			snap, err := scope.Tenant()
			require.NoError(t, err)
			assert.Equal(t, "t1", snap.ID)

			h, err := scope.Handle()
			require.NoError(t, err)
			assert.Equal(t, "postgres://t1", h.url)

			bundle, err := scope.Secrets()
			require.NoError(t, err)
			assert.True(t, bundle.Has(tenant.FieldWorkspaceClientSecret))

			md, err := scope.Metadata()
			require.NoError(t, err)
			assert.Equal(t, tenant.SourceWorkspaceID, md.Source)

			assert.True(t, tenant.IsActive(scope.Context()))
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("reuses active binding", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, []tenant.Record{workspaceRecord("t1", "w1", "s")})

		err := f.svc.Run(context.Background(), tenant.Input{TenantID: "t1"}, func(ctx context.Context) error {
			calls := f.dir.calls()
			err := tenant.RunWorkspace(ctx, f.svc, "w1", func(context.Context, tenant.Scope[*handle]) error {
				return nil
			})
			assert.Equal(t, calls, f.dir.calls())
			return err
		})
		require.NoError(t, err)
	})

	t.Run("handler error logged with handler message only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, []tenant.Record{workspaceRecord("t1", "w1", "s")})
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))
		sentinel := errors.New("handler broke")

		err := tenant.RunWorkspace(context.Background(), f.svc, "w1",
			func(context.Context, tenant.Scope[*handle]) error { return sentinel },
			tenant.WithRunnerLogger(log),
			tenant.WithHandlerErrorMessage("sync failed"),
			tenant.WithContextErrorMessage("context failed"),
		)
		assert.Same(t, sentinel, err)
		assert.Contains(t, buf.String(), "sync failed")
		assert.NotContains(t, buf.String(), "context failed")
	})

	t.Run("resolution error logged with context message only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))

		called := false
		err := tenant.RunWorkspace(context.Background(), f.svc, "missing",
			func(context.Context, tenant.Scope[*handle]) error {
				called = true
				return nil
			},
			tenant.WithRunnerLogger(log),
		)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		assert.False(t, called)
		assert.Contains(t, buf.String(), "failed to prepare workspace context for missing")
		assert.NotContains(t, buf.String(), "failed to execute handler")
	})

	t.Run("handler factory", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, []tenant.Record{
			workspaceRecord("t1", "w1", "s"),
			workspaceRecord("t2", "w2", "s"),
		})

		var seen []string
		run := tenant.WorkspaceHandler(f.svc, func(_ context.Context, scope tenant.Scope[*handle]) error {
			snap, err := scope.Tenant()
			if err != nil {
				return err
			}
			seen = append(seen, snap.ID)
			return nil
		})

		require.NoError(t, run(context.Background(), "w2"))
		require.NoError(t, run(context.Background(), "w1"))
		assert.Equal(t, []string{"t2", "t1"}, seen)
	})
}
