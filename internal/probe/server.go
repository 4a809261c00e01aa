// Package probe serves connection health over HTTP.
//
// GET /healthz answers as long as the process is up. GET /probe opens a
// connection through the gateway, closes it again, and reports the
// normalised outcome:
//
//	200 {"ok":true,"driver":"postgres"}
//	503 {"ok":false,"severity":"error","code":"28P01","description":"Invalid password"}
//
// GET /metrics serves probe counters and latencies in Prometheus format.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/pgate/internal/database"
	"github.com/koustreak/pgate/internal/errs"
	"github.com/koustreak/pgate/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Result is the /probe response body.
type Result struct {
	OK          bool   `json:"ok"`
	Driver      string `json:"driver,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Server probes one resolved configuration on demand.
type Server struct {
	gw     *database.Gateway
	cfg    *database.Config
	log    *logger.Logger
	router chi.Router

	registry *prometheus.Registry
	metrics  Collector
}

// New builds a probe server. A nil log uses the global logger.
func New(gw *database.Gateway, cfg *database.Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Global()
	}
	s := &Server{gw: gw, cfg: cfg, log: log, registry: prometheus.NewRegistry()}

	if c, err := NewPrometheusCollector(s.registry); err != nil {
		log.WarnWith("probe metrics disabled", err, nil)
		s.metrics = Noop()
	} else {
		s.metrics = c
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/probe", s.handleProbe)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.InfoWith("probe listening", logger.Fields{"addr": addr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Probe connects and closes once, reporting the outcome.
func (s *Server) Probe(ctx context.Context) Result {
	start := time.Now()
	driver := string(s.gw.Driver())

	h, err := s.gw.Connect(ctx, s.cfg)
	if err != nil {
		var connErr *errs.Error
		if !errors.As(err, &connErr) {
			connErr = errs.Unknown(err)
		}
		s.metrics.ObserveProbe(driver, connErr.Code, time.Since(start))
		return Result{
			Severity:    connErr.Severity.String(),
			Code:        connErr.Code,
			Description: connErr.Description,
		}
	}
	s.gw.Close(ctx, h)
	s.metrics.ObserveProbe(driver, CodeOK, time.Since(start))

	return Result{OK: true, Driver: string(h.Driver())}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	res := s.Probe(r.Context())
	status := http.StatusOK
	if !res.OK {
		status = http.StatusServiceUnavailable
		logger.FromContext(r.Context()).InfoWith("probe failed", logger.Fields{
			"code":     res.Code,
			"severity": res.Severity,
		})
	}
	writeJSON(w, status, res)
}

// requestLogger stores a request-scoped logger in the request context and
// logs one line per request once the handler returns.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := s.log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(log.WithContext(r.Context())))

		log.InfoWith("request", logger.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
