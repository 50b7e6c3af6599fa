package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck returns a probe that pings conn.
func Healthcheck(conn *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := conn.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// TenantHealthcheck pings the handle of the tenant bound to ctx.
func TenantHealthcheck(ctx context.Context, handle func(context.Context) (*pgxpool.Pool, error)) error {
	conn, err := handle(ctx)
	if err != nil {
		return err
	}
	return Healthcheck(conn)(ctx)
}
