package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/pgate/internal/database"
)

// mapError turns a server-reported failure into a FailureSignal keyed by its
// SQLSTATE code. Dial, TLS and context errors carry no code and pass through.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &database.FailureSignal{Reason: pgErr.Code, Cause: err}
	}

	return err
}
