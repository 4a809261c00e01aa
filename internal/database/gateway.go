package database

import (
	"context"

	"github.com/koustreak/pgate/internal/logger"
)

// Gateway owns connection lifecycle on top of an injected Client and
// normalises every client failure into *errs.Error.
//
// Gateways hold no shared mutable state; independent instances may be used
// from independent goroutines. Connect and Close block for the duration of
// the client's network round trip. Nothing is retried.
type Gateway struct {
	client Client
	driver Driver
	log    *logger.Logger
}

// NewGateway wraps client. A nil log discards gateway logging.
func NewGateway(client Client, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	g := &Gateway{client: client, log: log}
	if d, ok := client.(interface{ Driver() Driver }); ok {
		g.driver = d.Driver()
	}
	return g
}

// Driver reports the client's driver, or "" when the client does not say.
func (g *Gateway) Driver() Driver {
	return g.driver
}

// Connect opens a connection with cfg. On failure the returned error is
// always an *errs.Error; the handle is nil.
func (g *Gateway) Connect(ctx context.Context, cfg *Config) (*Handle, error) {
	host, creds, opts := split(cfg)

	log := g.log.With().
		Str("driver", string(g.driver)).
		Str("host", host).
		Int("port", opts.Port).
		Str("tls_mode", opts.TLSMode.String()).
		Logger()
	log.Debug("connecting")

	raw, err := g.client.Connect(ctx, host, creds, opts)
	if err != nil {
		connErr := translate(err)
		log.ErrorWith("connect failed", err, logger.Fields{
			"code":     connErr.Code,
			"severity": connErr.Severity.String(),
		})
		return nil, connErr
	}

	log.Debug("connected")
	return newHandle(raw, g.driver), nil
}

// MustConnect is Connect for call sites with no recovery path, such as
// startup. It panics with the *errs.Error on failure.
func (g *Gateway) MustConnect(ctx context.Context, cfg *Config) *Handle {
	h, err := g.Connect(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return h
}

// Close releases h's connection. Release failures are logged, never returned.
// Closing a handle that is already Closed (or was never opened) is a no-op,
// so the client's Close runs at most once per handle.
func (g *Gateway) Close(ctx context.Context, h *Handle) {
	if h == nil || !h.markClosed() {
		return
	}
	if err := g.client.Close(ctx, h.raw); err != nil {
		g.log.WarnWith("close failed", err, logger.Fields{
			"driver": string(h.driver),
		})
	}
	h.raw = nil
}
