package mysql

import (
	"errors"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/pgate/internal/database"
)

// mapError converts a server-reported MySQL error into a FailureSignal keyed
// by its SQLSTATE (access denied, 1045, reports 28000). Errors sent without a
// SQLSTATE fall back to the numeric error code.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		reason := sqlState(mysqlErr)
		if reason == "" {
			reason = strconv.Itoa(int(mysqlErr.Number))
		}
		return &database.FailureSignal{Reason: reason, Cause: err}
	}

	return err
}

func sqlState(e *gomysql.MySQLError) string {
	if e.SQLState == [5]byte{} {
		return ""
	}
	return string(e.SQLState[:])
}
