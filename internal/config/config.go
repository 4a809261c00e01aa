// Package config turns pgate's outer inputs (a YAML file, a connection URL,
// libpq environment variables, .env files) into a database.PartialConfig.
//
// Layers are merged lowest first:
//
//	YAML url → YAML keys → DATABASE_URL → PG* variables → CLI flags
//
// Defaults are not applied here; database.Resolve does that last.
package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/koustreak/pgate/internal/database"
	"github.com/koustreak/pgate/internal/logger"
	"go.yaml.in/yaml/v3"
)

// File is the on-disk YAML layout.
type File struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`

	Host     *string `yaml:"host"`
	Port     *int    `yaml:"port"`
	Username *string `yaml:"username"`
	Password *string `yaml:"password"`
	Database *string `yaml:"database"`

	// ConnectTimeout is a Go duration string, e.g. "5s".
	ConnectTimeout *string `yaml:"connect_timeout"`

	TLS     TLSConfig     `yaml:"tls"`
	Logging LoggingConfig `yaml:"logging"`
}

// TLSConfig describes transport security. Mode is one of off, on, required
// (libpq sslmode spellings are accepted too).
type TLSConfig struct {
	Mode               string `yaml:"mode"`
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	ServerName         string `yaml:"server_name"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// LoggingConfig mirrors logger.Config for the file format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file. An empty path yields an empty File.
func Load(path string) (*File, error) {
	f := &File{}
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return f, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// DriverName picks the configured driver: explicit key, then URL scheme,
// then postgres.
func (f *File) DriverName() (database.Driver, error) {
	if f.Driver != "" {
		return ParseDriver(f.Driver)
	}
	if f.URL != "" {
		_, d, err := ParseURL(f.URL)
		return d, err
	}
	return database.DriverPostgres, nil
}

// Partial converts the file into a PartialConfig. Discrete keys override
// whatever the url supplied.
func (f *File) Partial() (database.PartialConfig, error) {
	var p database.PartialConfig

	if f.URL != "" {
		fromURL, _, err := ParseURL(f.URL)
		if err != nil {
			return p, err
		}
		p = fromURL
	}

	keys := database.PartialConfig{
		Host:     f.Host,
		Port:     f.Port,
		Username: f.Username,
		Password: f.Password,
		Database: f.Database,
	}

	if f.ConnectTimeout != nil {
		d, err := time.ParseDuration(*f.ConnectTimeout)
		if err != nil {
			return p, fmt.Errorf("invalid connect_timeout %q: %w", *f.ConnectTimeout, err)
		}
		keys.ConnectTimeout = &d
	}

	mode, opts, err := f.TLS.build()
	if err != nil {
		return p, err
	}
	keys.TLSMode = mode
	keys.TLSOptions = opts

	return p.Merge(keys), nil
}

// LoggerConfig returns logger settings with file values over the defaults.
func (f *File) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if f.Logging.Level != "" {
		cfg.Level = f.Logging.Level
	}
	if f.Logging.Format != "" {
		cfg.Format = f.Logging.Format
	}
	return cfg
}

// build turns the tls block into a mode and an optional *tls.Config.
// No certificate material means the client's own TLS defaults apply.
func (t TLSConfig) build() (*database.TLSMode, *tls.Config, error) {
	var mode *database.TLSMode
	if t.Mode != "" {
		m, ok := database.ParseTLSMode(t.Mode)
		if !ok {
			return nil, nil, fmt.Errorf("invalid tls mode %q", t.Mode)
		}
		mode = &m
	}

	if t.CAFile == "" && t.CertFile == "" && t.ServerName == "" && !t.InsecureSkipVerify {
		return mode, nil, nil
	}

	opts := &tls.Config{
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify, //nolint:gosec // operator opt-in
		MinVersion:         tls.VersionTLS12,
	}

	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, nil, fmt.Errorf("reading tls ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, nil, fmt.Errorf("no certificates found in %s", t.CAFile)
		}
		opts.RootCAs = pool
	}

	if t.CertFile != "" || t.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading tls client certificate: %w", err)
		}
		opts.Certificates = []tls.Certificate{cert}
	}

	return mode, opts, nil
}
