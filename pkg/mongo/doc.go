// Package mongo connects to MongoDB and serves the tenant directory from it.
//
// Directory implements tenant.Directory over two collections:
//
//	tenants       { _id, name, active, db, workspace: { id, clientId, clientSecret, ... }, vectorStore: { url, apiKey } }
//	user_tenants  { userId, tenantId, active }
//
// Lookups by workspace use the workspace.id field; EnsureIndexes creates a unique
// sparse index on it. A missing document is reported as tenant.ErrTenantNotFound,
// any other failure as ErrDirectoryQuery joined with the driver error.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	dir := mongo.NewDirectory(db,
//		mongo.WithTenantCollection(cfg.TenantCollection),
//		mongo.WithMembershipCollection(cfg.MembershipCollection),
//	)
package mongo
