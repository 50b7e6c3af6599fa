package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when a resolve input names no tenant, user or workspace.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoTenantInContext is returned when no tenant is bound to the context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned when trying to use an inactive tenant.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrNoWorkspace is returned when the bound tenant has no workspace integration.
	ErrNoWorkspace = errors.New("tenant has no workspace configured")

	// ErrInvalidDirectoryFile is returned when a static directory document cannot be loaded.
	ErrInvalidDirectoryFile = errors.New("invalid tenant directory file")
)
