package tenancy

import "errors"

var (
	ErrNoDirectory          = errors.New("no tenant directory configured")
	ErrInvalidVaultKey      = errors.New("invalid tenant vault key")
	ErrDirectoryUnavailable = errors.New("tenant directory unavailable")
	ErrCacheUnavailable     = errors.New("tenant cache store unavailable")
)
