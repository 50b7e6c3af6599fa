// Package pg opens per-tenant PostgreSQL handles for the tenancy handle pool.
//
// Every tenant record carries its own connection URL. Factory turns that URL into a
// *pgxpool.Pool sized by Config, pings it, and optionally runs goose migrations from
// Config.MigrationsPath before the pool is handed out. Dispose closes the pool when
// the tenant is evicted from pool.Pool.
//
//	factory := pg.NewFactory(cfg, pg.WithLogger(log))
//	handles := pool.New[*pgxpool.Pool](factory, pool.WithTTL(30*time.Minute))
//
// Errors are sentinels joined with the driver error, so errors.Is works on both.
package pg
