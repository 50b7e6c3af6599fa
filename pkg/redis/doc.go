// Package redis connects to Redis and adapts it as the distributed tier of the
// tenant cache.
//
// Connect retries until the server answers PING. NewStore wraps the client as a
// tenant.Store: GET/SET/DEL with a per-call timeout, redis.Nil reported as absence.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	cache := tenant.NewCache(redis.NewStore(client, redis.WithOperationTimeout(cfg.OpTimeout)))
//
// Healthcheck returns a probe suitable for readiness endpoints.
package redis
