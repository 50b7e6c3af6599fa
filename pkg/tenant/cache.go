package tenant

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// DefaultCacheTTL is the distributed tier TTL used when SetTenant gets a non-positive ttl.
const DefaultCacheTTL = 3600 * time.Second

// Store is the distributed key-value tier of the cache.
// Get reports absence with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Cache is a two-tier tenant cache: unbounded process memory in front of an optional Store.
// Memory entries never expire; only Invalidate removes them. Store failures are logged
// and treated as misses.
type Cache struct {
	store   Store
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger
	metrics *CacheMetrics

	mu      sync.RWMutex
	tenants map[string]Snapshot
	aliases map[string]string
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithKeyPrefix sets the distributed key prefix. Default "tenants".
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithDefaultTTL sets the TTL used when SetTenant is called with ttl <= 0.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheMetrics reports cache activity to Prometheus collectors.
func WithCacheMetrics(m *CacheMetrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

// NewCache creates a cache. A nil store keeps everything in memory.
func NewCache(store Store, opts ...CacheOption) *Cache {
	c := &Cache{
		store:   store,
		prefix:  "tenants",
		ttl:     DefaultCacheTTL,
		logger:  slog.Default(),
		tenants: make(map[string]Snapshot),
		aliases: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) tenantKey(id string) string {
	return c.prefix + ":" + id
}

func (c *Cache) workspaceKey(workspaceID string) string {
	return c.prefix + ":byWorkspace:" + workspaceID
}

// GetTenant returns the cached snapshot for id.
func (c *Cache) GetTenant(ctx context.Context, id string) (Snapshot, bool) {
	c.mu.RLock()
	s, ok := c.tenants[id]
	c.mu.RUnlock()
	if ok {
		c.metrics.hit(tierMemory)
		return s, true
	}

	if c.store == nil {
		c.metrics.miss()
		return Snapshot{}, false
	}

	raw, ok, err := c.store.Get(ctx, c.tenantKey(id))
	if err != nil {
		c.storeFailed(ctx, "get", err, logger.TenantID(id))
		c.metrics.miss()
		return Snapshot{}, false
	}
	if !ok {
		c.metrics.miss()
		return Snapshot{}, false
	}

	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		c.storeFailed(ctx, "decode", err, logger.TenantID(id))
		c.metrics.miss()
		return Snapshot{}, false
	}

	c.mu.Lock()
	c.tenants[s.ID] = s
	if ws := s.WorkspaceID(); ws != "" {
		c.aliases[ws] = s.ID
	}
	c.mu.Unlock()

	c.metrics.hit(tierDistributed)
	return s, true
}

// SetTenant stores s in memory and, when configured, in the distributed tier with ttl.
// A non-positive ttl uses the cache default.
func (c *Cache) SetTenant(ctx context.Context, s Snapshot, ttl time.Duration) {
	ws := s.WorkspaceID()

	c.mu.Lock()
	c.tenants[s.ID] = s
	if ws != "" {
		c.aliases[ws] = s.ID
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	payload, err := json.Marshal(s)
	if err != nil {
		c.storeFailed(ctx, "encode", err, logger.TenantID(s.ID))
		return
	}
	if err := c.store.Set(ctx, c.tenantKey(s.ID), string(payload), ttl); err != nil {
		c.storeFailed(ctx, "set", err, logger.TenantID(s.ID))
	}
	if ws != "" {
		if err := c.store.Set(ctx, c.workspaceKey(ws), s.ID, ttl); err != nil {
			c.storeFailed(ctx, "set", err, logger.TenantID(s.ID), logger.WorkspaceID(ws))
		}
	}
}

// TenantIDByWorkspace returns the tenant id aliased to workspaceID.
func (c *Cache) TenantIDByWorkspace(ctx context.Context, workspaceID string) (string, bool) {
	c.mu.RLock()
	id, ok := c.aliases[workspaceID]
	c.mu.RUnlock()
	if ok {
		c.metrics.hit(tierMemory)
		return id, true
	}

	if c.store == nil {
		c.metrics.miss()
		return "", false
	}

	id, ok, err := c.store.Get(ctx, c.workspaceKey(workspaceID))
	if err != nil {
		c.storeFailed(ctx, "get", err, logger.WorkspaceID(workspaceID))
		c.metrics.miss()
		return "", false
	}
	if !ok || id == "" {
		c.metrics.miss()
		return "", false
	}

	c.mu.Lock()
	c.aliases[workspaceID] = id
	c.mu.Unlock()

	c.metrics.hit(tierDistributed)
	return id, true
}

// Invalidate removes the tenant entry and the workspace alias from both tiers.
// An empty workspaceID falls back to the alias of the cached snapshot, if any.
func (c *Cache) Invalidate(ctx context.Context, id, workspaceID string) {
	c.mu.Lock()
	if workspaceID == "" {
		workspaceID = c.tenants[id].WorkspaceID()
	}
	delete(c.tenants, id)
	if workspaceID != "" {
		delete(c.aliases, workspaceID)
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	keys := []string{c.tenantKey(id)}
	if workspaceID != "" {
		keys = append(keys, c.workspaceKey(workspaceID))
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.storeFailed(ctx, "del", err, logger.TenantID(id), logger.WorkspaceID(workspaceID))
	}
}

func (c *Cache) storeFailed(ctx context.Context, op string, err error, attrs ...slog.Attr) {
	c.metrics.storeFailed(op)

	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("op", op), logger.Error(err))
	for _, a := range attrs {
		args = append(args, a)
	}
	c.logger.WarnContext(ctx, "tenant cache store unavailable, falling back", args...)
}
