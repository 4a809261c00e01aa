// Package mysql provides a MySQL implementation of database.Client.
//
// Each Connect returns one driver.Conn taken straight from the connector,
// without a database/sql pool in between.
package mysql

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/pgate/internal/database"
	"github.com/koustreak/pgate/internal/logger"
)

// DefaultPort is the MySQL server port. Callers layering configuration for
// MySQL start from it, since database.Resolve defaults to the postgres port.
const DefaultPort = 3306

// tlsNames maps TLS policy onto the driver's named tls settings
var tlsNames = map[database.TLSMode]string{
	database.TLSOff:      "false",
	database.TLSOn:       "preferred",
	database.TLSRequired: "true",
}

// Client opens MySQL connections. Safe for concurrent use.
type Client struct {
	log *logger.Logger
}

// New returns a MySQL client. A nil log discards driver warnings.
func New(log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{log: log}
}

// Driver reports database.DriverMySQL.
func (c *Client) Driver() database.Driver {
	return database.DriverMySQL
}

// Connect dials MySQL and completes the handshake.
func (c *Client) Connect(ctx context.Context, host string, creds database.Credentials, opts database.Options) (database.RawConn, error) {
	if opts.Notify != nil {
		c.log.Warn("mysql has no server notifications; notify target ignored")
	}

	connector, err := gomysql.NewConnector(buildConfig(host, creds, opts))
	if err != nil {
		return nil, fmt.Errorf("invalid mysql config: %w", err)
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return conn, nil
}

// Close sends COM_QUIT and closes the socket.
func (c *Client) Close(_ context.Context, raw database.RawConn) error {
	conn, ok := raw.(driver.Conn)
	if !ok {
		return fmt.Errorf("mysql: unexpected connection type %T", raw)
	}
	return mapError(conn.Close())
}

// buildConfig translates gateway arguments into a driver config
func buildConfig(host string, creds database.Credentials, opts database.Options) *gomysql.Config {
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(opts.Port))
	cfg.User = creds.Username
	cfg.Passwd = creds.Password
	cfg.DBName = opts.Database
	cfg.Timeout = opts.ConnectTimeout
	cfg.ParseTime = true

	cfg.TLSConfig = tlsNames[opts.TLSMode]
	if opts.TLSOptions != nil && opts.TLSMode != database.TLSOff {
		cfg.TLS = opts.TLSOptions.Clone()
		cfg.AllowFallbackToPlaintext = opts.TLSMode == database.TLSOn
	}

	return cfg
}

var _ database.Client = (*Client)(nil)
