// Package pool keeps one live, expensive handle per key (typically one database pool per
// tenant) and bounds how many of them exist at once.
//
// Every Get first sweeps expired entries, then returns the cached handle for the key or
// opens a new one through the Factory. Entries expire a fixed TTL after creation; reads do
// not extend the TTL, they only refresh the last-used time used for LRU eviction. When the
// pool grows past its maximum size, the entry with the oldest last-used time is disposed.
// Among entries with the same last-used time the one inserted first is evicted.
//
// # Usage
//
//	p := pool.New[*pgxpool.Pool](pg.NewFactory(pg.FactoryConfig{}),
//		pool.WithTTL(30*time.Minute),
//		pool.WithMaxSize(20),
//	)
//	defer p.Close(ctx)
//
//	db, err := p.Get(ctx, tenantID, connectionURL)
//
// # Concurrency
//
// The pool is safe for concurrent use. Factory calls run outside the pool lock, and
// concurrent misses for the same key share a single Open call, so at most one live entry
// exists per key.
//
// # Errors
//
// Open failures are logged and returned unchanged. Dispose failures are logged as warnings
// and never stop an entry from being removed.
package pool
