// Package postgres provides a PostgreSQL implementation of database.Client
// backed by a single pgx connection.
//
// Usage:
//
//	gw := database.NewGateway(postgres.New(), log)
//	h, err := gw.Connect(ctx, database.Resolve(partial))
//	if err != nil { ... }
//	defer gw.Close(ctx, h)
//
//	conn := h.Raw().(*pgx.Conn)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/pgate/internal/database"
)

// Client opens one *pgx.Conn per Connect call. It holds no state and is
// safe for concurrent use; the connections it returns are not.
type Client struct{}

// New returns a PostgreSQL client.
func New() *Client {
	return &Client{}
}

// Driver reports database.DriverPostgres.
func (c *Client) Driver() database.Driver {
	return database.DriverPostgres
}

// Connect dials PostgreSQL and completes the startup handshake.
func (c *Client) Connect(ctx context.Context, host string, creds database.Credentials, opts database.Options) (database.RawConn, error) {
	cfg, err := buildConnConfig(host, creds, opts)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, mapError(err)
	}
	return conn, nil
}

// Close sends Terminate and closes the socket.
func (c *Client) Close(ctx context.Context, raw database.RawConn) error {
	conn, ok := raw.(*pgx.Conn)
	if !ok {
		return fmt.Errorf("postgres: unexpected connection type %T", raw)
	}
	return conn.Close(ctx)
}

var _ database.Client = (*Client)(nil)
