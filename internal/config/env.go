package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/koustreak/pgate/internal/database"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnvironment reads the process environment. See FromEnv.
func FromEnvironment(driver database.Driver) (database.PartialConfig, error) {
	return FromEnv(os.LookupEnv, driver)
}

// FromEnv builds a PartialConfig for driver from the environment.
// DATABASE_URL applies only when its scheme names the same driver. The libpq
// PG* variables apply to postgres only and override DATABASE_URL.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
func FromEnv(lookup LookupFunc, driver database.Driver) (database.PartialConfig, error) {
	var p database.PartialConfig

	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		fromURL, urlDriver, err := ParseURL(v)
		if err != nil {
			return p, fmt.Errorf("$DATABASE_URL: %w", err)
		}
		if urlDriver == driver {
			p = fromURL
		}
	}

	if driver != database.DriverPostgres {
		return p, nil
	}

	var env database.PartialConfig
	str := func(key string) *string {
		if v, ok := lookup(key); ok && v != "" {
			return &v
		}
		return nil
	}

	env.Host = str("PGHOST")
	env.Username = str("PGUSER")
	env.Password = str("PGPASSWORD")
	env.Database = str("PGDATABASE")

	if v := str("PGPORT"); v != nil {
		port, err := strconv.Atoi(*v)
		if err != nil {
			return p, fmt.Errorf("invalid $PGPORT value '%s': must be an integer", *v)
		}
		env.Port = &port
	}

	if v := str("PGSSLMODE"); v != nil {
		mode, ok := database.ParseTLSMode(*v)
		if !ok {
			return p, fmt.Errorf("invalid $PGSSLMODE value '%s'", *v)
		}
		env.TLSMode = &mode
	}

	if v := str("PGCONNECT_TIMEOUT"); v != nil {
		d, err := parseSeconds(*v)
		if err != nil {
			return p, fmt.Errorf("$PGCONNECT_TIMEOUT: %w", err)
		}
		env.ConnectTimeout = &d
	}

	return p.Merge(env), nil
}
