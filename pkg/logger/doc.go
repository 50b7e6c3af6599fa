// Package logger builds the *slog.Logger used across the tenancy packages.
//
// New applies functional options on top of production-safe defaults (JSON, INFO level,
// stdout). FromConfig does the same from an environment-loaded Config. Every logger is
// wrapped in a decorator that copies values out of context.Context into each record, which
// is how the active tenant binding ends up on log lines without being passed around:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "billing"),
//		logger.WithContextExtractors(tenant.LoggerExtractor(), tenant.SourceExtractor()),
//	)
//	log.InfoContext(ctx, "invoice created") // carries tenant_id and tenant_source
//
// # Redaction
//
// WithRedactedKeys masks attribute values by key before they reach the handler. The
// defaults cover the secret fields of tenant records (client_secret, api_key, password).
//
// # Attributes
//
// Helpers such as TenantID, WorkspaceID, UserID and Error return slog.Attr values with
// consistent keys; nil inputs become empty attributes that slog drops.
package logger
