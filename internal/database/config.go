package database

import (
	"crypto/tls"
	"os"
	"os/user"
	"time"
)

// Driver identifies the database engine behind a Client.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// TLSMode is the transport security policy handed to the client.
type TLSMode int

const (
	TLSOff      TLSMode = iota // plaintext only
	TLSOn                      // try TLS, fall back to plaintext
	TLSRequired                // TLS or fail
)

func (m TLSMode) String() string {
	switch m {
	case TLSOn:
		return "on"
	case TLSRequired:
		return "required"
	default:
		return "off"
	}
}

// ParseTLSMode accepts the three mode names plus the libpq sslmode spellings.
func ParseTLSMode(s string) (TLSMode, bool) {
	switch s {
	case "off", "disable", "false":
		return TLSOff, true
	case "on", "allow", "prefer", "preferred", "true":
		return TLSOn, true
	case "required", "require", "verify-ca", "verify-full":
		return TLSRequired, true
	}
	return TLSOff, false
}

const (
	DefaultHost           = "localhost"
	DefaultPort           = 5432
	DefaultTLSMode        = TLSOff
	DefaultConnectTimeout = 5000 * time.Millisecond
)

// Config is a fully resolved connection configuration.
// Host, Port, TLSMode and ConnectTimeout are always set after Resolve.
// Empty Username/Password/Database and nil TLSOptions/Notify mean
// "use the client's default".
type Config struct {
	Host     string
	Username string
	Password string
	Database string
	Port     int

	TLSMode    TLSMode
	TLSOptions *tls.Config

	// ConnectTimeout bounds the client's connection establishment.
	ConnectTimeout time.Duration

	// Notify receives asynchronous server notifications, where supported.
	Notify NotificationHandler
}

// PartialConfig is sparse user input. A nil field takes its default.
type PartialConfig struct {
	Host     *string
	Username *string
	Password *string
	Database *string
	Port     *int

	TLSMode    *TLSMode
	TLSOptions *tls.Config

	ConnectTimeout *time.Duration
	Notify         NotificationHandler
}

// Ptr returns a pointer to v, for building PartialConfig literals.
func Ptr[T any](v T) *T {
	return &v
}

// Merge returns p with every field set in o layered on top.
func (p PartialConfig) Merge(o PartialConfig) PartialConfig {
	out := p
	if o.Host != nil {
		out.Host = o.Host
	}
	if o.Username != nil {
		out.Username = o.Username
	}
	if o.Password != nil {
		out.Password = o.Password
	}
	if o.Database != nil {
		out.Database = o.Database
	}
	if o.Port != nil {
		out.Port = o.Port
	}
	if o.TLSMode != nil {
		out.TLSMode = o.TLSMode
	}
	if o.TLSOptions != nil {
		out.TLSOptions = o.TLSOptions
	}
	if o.ConnectTimeout != nil {
		out.ConnectTimeout = o.ConnectTimeout
	}
	if o.Notify != nil {
		out.Notify = o.Notify
	}
	return out
}

// currentUser derives the OS user name. Swapped out in tests.
var currentUser = func() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

// Resolve fills every absent field of in with its default. It never fails:
// value checks (port range, credentials) belong to the client at connect time.
func Resolve(in PartialConfig) *Config {
	cfg := &Config{
		Host:           withDefault(in.Host, DefaultHost),
		Port:           withDefault(in.Port, DefaultPort),
		TLSMode:        withDefault(in.TLSMode, DefaultTLSMode),
		ConnectTimeout: withDefault(in.ConnectTimeout, DefaultConnectTimeout),
		Password:       withDefault(in.Password, ""),
		Database:       withDefault(in.Database, ""),
		TLSOptions:     in.TLSOptions,
		Notify:         in.Notify,
	}

	if in.Username != nil {
		cfg.Username = *in.Username
	} else {
		cfg.Username = currentUser()
	}

	return cfg
}

// withDefault returns *val if set, otherwise def
func withDefault[T any](val *T, def T) T {
	if val == nil {
		return def
	}
	return *val
}
