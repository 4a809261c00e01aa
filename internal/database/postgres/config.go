package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/pgate/internal/database"
)

// sslModes maps TLS policy onto libpq sslmode values
var sslModes = map[database.TLSMode]string{
	database.TLSOff:      "disable",
	database.TLSOn:       "prefer",
	database.TLSRequired: "require",
}

// buildConnConfig translates gateway arguments into a pgx connection config.
// Empty credentials and database are left out so pgx applies its own
// defaults (PGUSER, PGPASSWORD, .pgpass, OS user).
func buildConnConfig(host string, creds database.Credentials, opts database.Options) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(buildURL(host, creds, opts))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}

	cfg.ConnectTimeout = opts.ConnectTimeout

	if opts.TLSOptions != nil && opts.TLSMode != database.TLSOff {
		tlsCfg := opts.TLSOptions.Clone()
		if tlsCfg.ServerName == "" && !tlsCfg.InsecureSkipVerify {
			tlsCfg.ServerName = host
		}
		if cfg.TLSConfig != nil {
			cfg.TLSConfig = tlsCfg
		}
		for _, fb := range cfg.Fallbacks {
			if fb.TLSConfig != nil {
				fb.TLSConfig = tlsCfg
			}
		}
	}

	if notify := opts.Notify; notify != nil {
		cfg.OnNotification = func(_ *pgconn.PgConn, n *pgconn.Notification) {
			notify(database.Notification{PID: n.PID, Channel: n.Channel, Payload: n.Payload})
		}
	}

	return cfg, nil
}

// buildURL constructs the postgresql:// connection string. A host that is
// an absolute path names a Unix socket directory; it cannot sit in the URL
// authority, so it goes in the host query parameter instead.
func buildURL(host string, creds database.Credentials, opts database.Options) string {
	u := &url.URL{Scheme: "postgresql", Path: "/"}
	q := url.Values{}

	if strings.HasPrefix(host, "/") {
		q.Set("host", host)
		q.Set("port", strconv.Itoa(opts.Port))
	} else {
		u.Host = net.JoinHostPort(host, strconv.Itoa(opts.Port))
		u.Path = ""
	}
	if opts.Database != "" {
		u.Path = "/" + opts.Database
	}

	switch {
	case creds.Username != "" && creds.Password != "":
		u.User = url.UserPassword(creds.Username, creds.Password)
	case creds.Username != "":
		u.User = url.User(creds.Username)
	}

	q.Set("sslmode", sslModes[opts.TLSMode])
	u.RawQuery = q.Encode()

	return u.String()
}
