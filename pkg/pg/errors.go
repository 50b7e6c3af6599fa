package pg

import "errors"

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open tenant db connection")
	ErrEmptyConnectionString    = errors.New("empty tenant db connection string")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse tenant db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
	ErrMigrationsDirNotFound    = errors.New("migrations directory not found")
)
