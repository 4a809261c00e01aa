package database

import (
	"context"
	"crypto/tls"
	"time"
)

// RawConn is whatever live connection object a Client hands back.
// The gateway never looks inside it.
type RawConn any

// Client is the narrow contract the gateway needs from an underlying
// database client. Everything above this package talks only to the
// gateway; drivers live in the postgres and mysql subpackages.
type Client interface {
	// Connect opens a single connection. Failures that carry a string
	// reason should be returned as *FailureSignal.
	Connect(ctx context.Context, host string, creds Credentials, opts Options) (RawConn, error)

	// Close releases a connection returned by Connect.
	Close(ctx context.Context, conn RawConn) error
}

// Credentials are the positional login arguments. Empty means client default.
type Credentials struct {
	Username string
	Password string
}

// Options is the keyword-style remainder of a Config.
type Options struct {
	Database       string
	Port           int
	TLSMode        TLSMode
	TLSOptions     *tls.Config
	ConnectTimeout time.Duration
	Notify         NotificationHandler
}

// Notification is an asynchronous message pushed by the server
// (e.g. Postgres LISTEN/NOTIFY).
type Notification struct {
	PID     uint32
	Channel string
	Payload string
}

// NotificationHandler receives notifications on the client's read path.
// It must not block.
type NotificationHandler func(Notification)

// split turns a resolved Config into the client's positional arguments.
func split(cfg *Config) (string, Credentials, Options) {
	creds := Credentials{Username: cfg.Username, Password: cfg.Password}
	opts := Options{
		Database:       cfg.Database,
		Port:           cfg.Port,
		TLSMode:        cfg.TLSMode,
		TLSOptions:     cfg.TLSOptions,
		ConnectTimeout: cfg.ConnectTimeout,
		Notify:         cfg.Notify,
	}
	return cfg.Host, creds, opts
}
