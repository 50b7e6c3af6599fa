package tenant_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/secrets"
	"github.com/dmitrymomot/tenancy/pkg/tenant"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func boolPtr(b bool) *bool { return &b }

func newVault(t *testing.T) *tenant.Vault {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	sealer, err := secrets.NewSealer(key)
	require.NoError(t, err)
	return tenant.NewVault(sealer, tenant.WithVaultLogger(discard))
}

func workspaceRecord(id, workspaceID, secret string) tenant.Record {
	return tenant.Record{
		ID:   id,
		Name: "Tenant " + id,
		DB:   "postgres://" + id,
		Workspace: &tenant.WorkspaceConfig{
			ID:           workspaceID,
			ClientID:     "client-" + id,
			ClientSecret: secret,
		},
	}
}

// countingDirectory wraps a StaticDirectory and counts calls.
type countingDirectory struct {
	*tenant.StaticDirectory
	byID        atomic.Int64
	byWorkspace atomic.Int64
	byUser      atomic.Int64
	err         error
}

func newDirectory(records ...tenant.Record) *countingDirectory {
	return &countingDirectory{StaticDirectory: tenant.NewStaticDirectory(records...)}
}

func (d *countingDirectory) TenantByID(ctx context.Context, id string) (tenant.Record, error) {
	d.byID.Add(1)
	if d.err != nil {
		return tenant.Record{}, d.err
	}
	return d.StaticDirectory.TenantByID(ctx, id)
}

func (d *countingDirectory) TenantByWorkspace(ctx context.Context, workspaceID string) (tenant.Record, error) {
	d.byWorkspace.Add(1)
	if d.err != nil {
		return tenant.Record{}, d.err
	}
	return d.StaticDirectory.TenantByWorkspace(ctx, workspaceID)
}

func (d *countingDirectory) ActiveMembership(ctx context.Context, userID string) (string, error) {
	d.byUser.Add(1)
	if d.err != nil {
		return "", d.err
	}
	return d.StaticDirectory.ActiveMembership(ctx, userID)
}

func (d *countingDirectory) calls() int64 {
	return d.byID.Load() + d.byWorkspace.Load() + d.byUser.Load()
}

type handle struct {
	tenantID string
	url      string
}

// handlePool returns one handle per key and counts Get calls.
type handlePool struct {
	mu      sync.Mutex
	handles map[string]*handle
	gets    atomic.Int64
	err     error
}

func newHandlePool() *handlePool {
	return &handlePool{handles: make(map[string]*handle)}
}

func (p *handlePool) Get(_ context.Context, key, url string) (*handle, error) {
	p.gets.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handles[key]
	if !ok {
		h = &handle{tenantID: key, url: url}
		p.handles[key] = h
	}
	return h, nil
}

// memoryStore is a Store backed by a map. Setting fail makes every call error.
type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	fail atomic.Bool
	gets atomic.Int64
}

var errStoreDown = errors.New("store down")

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.gets.Add(1)
	if s.fail.Load() {
		return "", false, errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if s.fail.Load() {
		return errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	if s.fail.Load() {
		return errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
		delete(s.ttls, k)
	}
	return nil
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

type fixture struct {
	dir     *countingDirectory
	store   *memoryStore
	cache   *tenant.Cache
	vault   *tenant.Vault
	handles *handlePool
	svc     *tenant.Service[*handle]
}

func newFixture(t *testing.T, records []tenant.Record, opts ...tenant.ServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		dir:     newDirectory(records...),
		store:   newMemoryStore(),
		vault:   newVault(t),
		handles: newHandlePool(),
	}
	f.cache = tenant.NewCache(f.store, tenant.WithCacheLogger(discard))
	opts = append([]tenant.ServiceOption{tenant.WithServiceLogger(discard)}, opts...)
	f.svc = tenant.NewService[*handle](f.dir, f.cache, f.vault, f.handles, opts...)
	return f
}

func tenantIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i+1)
	}
	return ids
}
