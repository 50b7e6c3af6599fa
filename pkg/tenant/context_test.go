package tenant_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/tenant"
)

func state(id string) tenant.State[*handle] {
	return tenant.State[*handle]{
		Tenant:   snapshot(id, ""),
		Handle:   &handle{tenantID: id},
		Metadata: tenant.Metadata{Source: tenant.SourceTenantID, Identifier: id},
	}
}

func TestRun_BindsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.False(t, tenant.IsActive(ctx))

	err := tenant.Run(ctx, state("t1"), func(ctx context.Context) error {
		assert.True(t, tenant.IsActive(ctx))

		st, ok := tenant.FromContext[*handle](ctx)
		require.True(t, ok)
		assert.Equal(t, "t1", st.Tenant.ID)
		assert.False(t, st.CreatedAt.IsZero())
		assert.NotZero(t, st.FlowID)

		snap, err := tenant.TenantFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "t1", snap.ID)

		h, err := tenant.HandleFromContext[*handle](ctx)
		require.NoError(t, err)
		assert.Equal(t, "t1", h.tenantID)

		md, err := tenant.MetadataFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, tenant.SourceTenantID, md.Source)

		_, err = tenant.SecretsFromContext(ctx)
		require.NoError(t, err)
		return nil
	})
	require.NoError(t, err)

	assert.False(t, tenant.IsActive(ctx), "caller context is untouched")
}

func TestAccessors_NoBinding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, ok := tenant.FromContext[*handle](ctx)
	assert.False(t, ok)

	_, err := tenant.TenantFromContext(ctx)
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	_, err = tenant.HandleFromContext[*handle](ctx)
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	_, err = tenant.MetadataFromContext(ctx)
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	_, err = tenant.SecretsFromContext(ctx)
	assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)

	t.Run("handle of another type", func(t *testing.T) {
		t.Parallel()
		err := tenant.Run(ctx, state("t1"), func(ctx context.Context) error {
			_, err := tenant.HandleFromContext[string](ctx)
			assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
			assert.True(t, tenant.IsActive(ctx))
			return nil
		})
		require.NoError(t, err)
	})
}

func TestRun_NestedRestoresOuter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	err := tenant.Run(ctx, state("t1"), func(outer context.Context) error {
		outerState, _ := tenant.FromContext[*handle](outer)

		err := tenant.Run(outer, state("t2"), func(inner context.Context) error {
			snap, err := tenant.TenantFromContext(inner)
			require.NoError(t, err)
			assert.Equal(t, "t2", snap.ID)
			return errors.New("inner failed")
		})
		require.Error(t, err)

		snap, err := tenant.TenantFromContext(outer)
		require.NoError(t, err)
		assert.Equal(t, "t1", snap.ID)

		again, _ := tenant.FromContext[*handle](outer)
		assert.Equal(t, outerState.FlowID, again.FlowID)
		return nil
	})
	require.NoError(t, err)
}

func TestRun_ErrorsAndPanics(t *testing.T) {
	t.Parallel()

	t.Run("error returned unchanged", func(t *testing.T) {
		t.Parallel()
		sentinel := errors.New("boom")
		err := tenant.Run(context.Background(), state("t1"), func(context.Context) error {
			return sentinel
		})
		assert.Same(t, sentinel, err)
	})

	t.Run("panic re-raised", func(t *testing.T) {
		t.Parallel()
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = tenant.Run(context.Background(), state("t1"), func(context.Context) error {
				panic("kaboom")
			})
		})
	})
}

func TestRun_Cancellation(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := tenant.Run(parent, state("t1"), func(ctx context.Context) error {
		<-ctx.Done()
		assert.True(t, tenant.IsActive(ctx))
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, tenant.IsActive(parent))
}

func TestLoggerExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextExtractors(tenant.LoggerExtractor(), tenant.SourceExtractor()),
	)

	log.InfoContext(context.Background(), "unbound")
	err := tenant.Run(context.Background(), state("t1"), func(ctx context.Context) error {
		log.InfoContext(ctx, "bound")
		return nil
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var unbound, bound map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &unbound))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &bound))

	assert.NotContains(t, unbound, "tenant_id")
	assert.Equal(t, "t1", bound["tenant_id"])
	assert.Equal(t, "tenantId", bound["tenant_source"])
}
