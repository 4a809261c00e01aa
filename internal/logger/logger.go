// Package logger is pgate's structured logger, a thin layer over zerolog.
//
// Connection code logs through a *Logger it is handed; HTTP handlers pick
// up a request-scoped child with FromContext.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger.
type Logger struct {
	zlog zerolog.Logger
}

// Fields are extra key/value pairs attached to one event.
type Fields map[string]any

// Config holds logger configuration
type Config struct {
	Level      string // trace, debug, info, warn, error, disabled
	Format     string // json, console
	TimeFormat string // rfc3339, unix, unixms, unixmicro
	Output     io.Writer
}

// DefaultConfig returns info-level JSON on stderr, keeping stdout for
// command output.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: "rfc3339",
		Output:     os.Stderr,
	}
}

// New creates a logger from cfg. Missing fields fall back to DefaultConfig.
// The level applies to this logger and its children only.
func New(cfg *Config) *Logger {
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}
	out := cfg.Output
	if out == nil {
		out = def.Output
	}

	zerolog.TimeFieldFormat = timeFormat(cfg.TimeFormat)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zlog := zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().Timestamp().Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// --- Context propagation ---

// WithContext returns a copy of ctx carrying l.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.zlog.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *Logger {
	zlog := zerolog.Ctx(ctx)
	if zlog.GetLevel() == zerolog.Disabled {
		return global
	}
	return &Logger{zlog: *zlog}
}

// --- Child loggers ---

// With starts a child logger with additional fields.
func (l *Logger) With() *Context {
	return &Context{ctx: l.zlog.With()}
}

// Context accumulates fields for a child logger.
type Context struct {
	ctx zerolog.Context
}

func (c *Context) Str(key, val string) *Context {
	c.ctx = c.ctx.Str(key, val)
	return c
}

func (c *Context) Int(key string, val int) *Context {
	c.ctx = c.ctx.Int(key, val)
	return c
}

func (c *Context) Logger() *Logger {
	return &Logger{zlog: c.ctx.Logger()}
}

// --- Events ---

func (l *Logger) Debug(msg string) {
	l.zlog.Debug().Msg(msg)
}

func (l *Logger) Info(msg string) {
	l.zlog.Info().Msg(msg)
}

func (l *Logger) Warn(msg string) {
	l.zlog.Warn().Msg(msg)
}

// InfoWith logs msg with fields.
func (l *Logger) InfoWith(msg string, fields Fields) {
	emit(l.zlog.Info(), msg, nil, fields)
}

// WarnWith logs msg with err and fields.
func (l *Logger) WarnWith(msg string, err error, fields Fields) {
	emit(l.zlog.Warn(), msg, err, fields)
}

// ErrorWith logs msg with err and fields.
func (l *Logger) ErrorWith(msg string, err error, fields Fields) {
	emit(l.zlog.Error(), msg, err, fields)
}

// emit is a no-op for events below the logger's level (zerolog hands back
// a nil *Event, and every Event method accepts nil).
func emit(e *zerolog.Event, msg string, err error, fields Fields) {
	if err != nil {
		e = e.Err(err)
	}
	if len(fields) > 0 {
		e = e.Fields(map[string]any(fields))
	}
	e.Msg(msg)
}

// --- Helpers ---

// parseLevel accepts zerolog level names; anything unknown means info.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func timeFormat(format string) string {
	switch format {
	case "unix":
		return zerolog.TimeFormatUnix
	case "unixms":
		return zerolog.TimeFormatUnixMs
	case "unixmicro":
		return zerolog.TimeFormatUnixMicro
	default:
		return time.RFC3339
	}
}

// --- Global ---

var global = New(nil)

// Global returns the process-wide logger, used where none was injected.
func Global() *Logger {
	return global
}

// SetGlobal replaces the process-wide logger.
func SetGlobal(l *Logger) {
	global = l
}
