// Package tenant resolves tenants to their per-tenant resources and binds them to
// the current execution flow.
//
// A tenant is selected by tenant id, by the id of a user with an active membership,
// or by an external workspace id. Resolution goes through three tiers: the binding
// already carried by the context, a two-tier Cache (process memory in front of an
// optional distributed Store), and finally the Directory, the source of truth.
// Records fetched from the directory are split by the Vault into a redacted Snapshot
// and a Bundle of sealed secrets before anything else sees them.
//
// # Binding
//
// Service.Run binds a State (snapshot, pooled handle, metadata, secrets) to a child
// context and calls the work function with it. Nested calls for the same tenant reuse
// the existing binding without touching the cache, the directory or the pool:
//
//	svc := tenant.NewService[*pgxpool.Pool](dir, cache, vault, handles)
//
//	err := svc.Run(ctx, tenant.Input{WorkspaceID: "w1"}, func(ctx context.Context) error {
//		db, err := tenant.HandleFromContext[*pgxpool.Pool](ctx)
//		if err != nil {
//			return err
//		}
//		return doWork(ctx, db)
//	})
//
// The binding lives in the context value chain, so concurrent flows never see each
// other's tenant and the caller's context is unchanged once Run returns.
//
// # Secrets
//
// Snapshots carry no secret fields. Secrets are exposed only as *secrets.Secret values
// that redact themselves in fmt, slog and JSON output. WorkspaceCredentials is the
// export point for the workspace client secret.
//
// # HTTP
//
// Middleware binds the tenant named by a request using a Resolver (header, subdomain,
// path segment, chi URL parameter, session or a composite of these):
//
//	r.Use(tenant.Middleware(svc, tenant.NewHeaderResolver("X-Tenant-ID"),
//		tenant.WithSkipPaths("/health"),
//	))
//
// Errors map to status codes: ErrTenantNotFound 404, ErrInactiveTenant 403,
// ErrInvalidIdentifier 400, anything else 500.
//
// # Logging
//
// Register LoggerExtractor and SourceExtractor with the logger package to stamp every
// record logged under a binding with tenant_id and tenant_source.
package tenant
