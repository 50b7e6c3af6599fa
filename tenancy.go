package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/mongo"
	"github.com/dmitrymomot/tenancy/pkg/pg"
	"github.com/dmitrymomot/tenancy/pkg/pool"
	"github.com/dmitrymomot/tenancy/pkg/redis"
	"github.com/dmitrymomot/tenancy/pkg/secrets"
	"github.com/dmitrymomot/tenancy/pkg/tenant"
)

// Tenancy owns the resolution service and the resources behind it.
type Tenancy struct {
	Service *tenant.Service[*pgxpool.Pool]
	Handles *pool.Pool[*pgxpool.Pool]
	Cache   *tenant.Cache
	Vault   *tenant.Vault

	logger  *slog.Logger
	checks  []check
	closers []func(context.Context) error
}

type check struct {
	probe    func(context.Context) error
	sentinel error
}

// New connects the configured backends and assembles the service.
// Whatever was opened before a failure is closed again.
func New(ctx context.Context, cfg Config, opts ...Option) (*Tenancy, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.FromConfig(cfg.Logger,
			logger.WithContextExtractors(tenant.LoggerExtractor(), tenant.SourceExtractor()),
		)
	}

	t := &Tenancy{logger: o.logger}
	if err := t.build(ctx, cfg, o); err != nil {
		_ = t.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return t, nil
}

func (t *Tenancy) build(ctx context.Context, cfg Config, o *options) error {
	sealer, err := newSealer(ctx, cfg.VaultKey, t.logger)
	if err != nil {
		return err
	}

	dir, err := t.directory(ctx, cfg, o)
	if err != nil {
		return err
	}

	store, err := t.store(ctx, cfg, o)
	if err != nil {
		return err
	}

	var (
		poolMetrics  *pool.Metrics
		cacheMetrics *tenant.CacheMetrics
	)
	if o.registerer != nil {
		poolMetrics = pool.NewMetrics(o.registerer, cfg.MetricsNamespace)
		cacheMetrics = tenant.NewCacheMetrics(o.registerer, cfg.MetricsNamespace)
	}

	factory := o.factory
	if factory == nil {
		factory = pg.NewFactory(cfg.Postgres, pg.WithLogger(t.logger))
	}

	t.Handles = pool.New(factory,
		pool.WithTTL(cfg.PoolTTL),
		pool.WithMaxSize(cfg.PoolMaxSize),
		pool.WithLogger(t.logger),
		pool.WithMetrics(poolMetrics),
	)
	t.closers = append(t.closers, t.Handles.Close)

	cacheOpts := []tenant.CacheOption{
		tenant.WithDefaultTTL(cfg.CacheTTL),
		tenant.WithCacheLogger(t.logger),
		tenant.WithCacheMetrics(cacheMetrics),
	}
	if cfg.CacheKeyPrefix != "" {
		cacheOpts = append(cacheOpts, tenant.WithKeyPrefix(cfg.CacheKeyPrefix))
	}
	t.Cache = tenant.NewCache(store, cacheOpts...)
	t.Vault = tenant.NewVault(sealer, tenant.WithVaultLogger(t.logger))

	t.Service = tenant.NewService[*pgxpool.Pool](dir, t.Cache, t.Vault, t.Handles,
		tenant.WithServiceLogger(t.logger),
		tenant.WithCacheTTL(cfg.CacheTTL),
		tenant.WithRequireActive(cfg.RequireActive),
	)
	return nil
}

func (t *Tenancy) directory(ctx context.Context, cfg Config, o *options) (tenant.Directory, error) {
	if o.directory != nil {
		return o.directory, nil
	}
	if !cfg.Mongo.Enabled() {
		return nil, ErrNoDirectory
	}

	client, err := mongo.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	t.closers = append(t.closers, client.Disconnect)
	t.checks = append(t.checks, check{probe: mongo.Healthcheck(client), sentinel: ErrDirectoryUnavailable})

	dir := mongo.NewDirectory(client.Database(cfg.Mongo.Database),
		mongo.WithTenantCollection(cfg.Mongo.TenantCollection),
		mongo.WithMembershipCollection(cfg.Mongo.MembershipCollection),
	)
	if err := dir.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return dir, nil
}

// store returns nil when no distributed tier is configured.
func (t *Tenancy) store(ctx context.Context, cfg Config, o *options) (tenant.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	if !cfg.Redis.Enabled() {
		t.logger.InfoContext(ctx, "no redis configured, tenant cache is memory only")
		return nil, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	t.closers = append(t.closers, func(context.Context) error { return client.Close() })
	t.checks = append(t.checks, check{probe: redis.Healthcheck(client), sentinel: ErrCacheUnavailable})

	return redis.NewStore(client, redis.WithOperationTimeout(cfg.Redis.OpTimeout)), nil
}

func newSealer(ctx context.Context, encoded string, log *slog.Logger) (*secrets.Sealer, error) {
	var (
		key []byte
		err error
	)
	if encoded == "" {
		log.WarnContext(ctx, "TENANT_VAULT_KEY is not set, sealing tenant secrets with a per-process key")
		key, err = secrets.GenerateKey()
	} else {
		key, err = secrets.ParseKey(encoded)
	}
	if err != nil {
		return nil, errors.Join(ErrInvalidVaultKey, err)
	}
	return secrets.NewSealer(key)
}

// Healthcheck probes the external backends New connected to.
func (t *Tenancy) Healthcheck(ctx context.Context) error {
	var errs []error
	for _, c := range t.checks {
		if err := c.probe(ctx); err != nil {
			errs = append(errs, errors.Join(c.sentinel, err))
		}
	}
	return errors.Join(errs...)
}

// Evict drops everything held for a tenant: cached snapshot, workspace alias,
// retained secrets and the pooled handle. The next resolution reloads it.
func (t *Tenancy) Evict(ctx context.Context, id, workspaceID string) {
	t.Service.Invalidate(ctx, id, workspaceID)
	t.Service.ForgetSecrets(id)
	t.Handles.Remove(ctx, id)
	t.logger.InfoContext(ctx, "tenant evicted", logger.TenantID(id))
}

// Close releases the handle pool and the backend connections, newest first.
func (t *Tenancy) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range slices.Backward(t.closers) {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.closers = nil
	return errors.Join(errs...)
}
