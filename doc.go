// Package tenancy wires the tenant resolution stack into one value.
//
// New builds, from a Config loaded through pkg/config:
//
//   - a tenant directory (MongoDB, or any tenant.Directory passed with WithDirectory)
//   - a two-tier tenant cache, with Redis as the distributed tier when REDIS_URL is set
//   - a secret vault sealed with TENANT_VAULT_KEY
//   - a pool of per-tenant PostgreSQL handles
//   - a tenant.Service that binds all of the above to a context
//
// Typical use:
//
//	cfg, err := tenancy.LoadConfig(config.WithOptionalEnvFiles(".env"))
//	if err != nil {
//		return err
//	}
//	t, err := tenancy.New(ctx, cfg, tenancy.WithRegisterer(prometheus.DefaultRegisterer))
//	if err != nil {
//		return err
//	}
//	defer t.Close(context.Background())
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(t.Service, tenant.NewHeaderResolver("")))
//	r.Get("/notes", func(w http.ResponseWriter, r *http.Request) {
//		db, _ := tenant.HandleFromContext[*pgxpool.Pool](r.Context())
//		// query the tenant database
//	})
package tenancy
