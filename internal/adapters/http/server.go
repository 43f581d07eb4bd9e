// Package httpadapter serves the audit API over chi.
package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"auditpro/internal/metrics"
	"auditpro/internal/ports"
)

const defaultAuditTimeout = 30 * time.Second

// InlineRunner processes one queued audit synchronously.
type InlineRunner interface {
	ProcessInline(ctx context.Context, sessionID string) error
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Audits     ports.Audits
	Businesses ports.Businesses
	Reports    ports.Reports
	Runner     InlineRunner
	Store      Pinger
	Metrics    *metrics.Metrics
	Log        zerolog.Logger

	// AuditTimeout bounds ?wait=true runs when the request gives no timeout.
	AuditTimeout time.Duration
}

type Server struct {
	audits       ports.Audits
	businesses   ports.Businesses
	reports      ports.Reports
	runner       InlineRunner
	store        Pinger
	metrics      *metrics.Metrics
	log          zerolog.Logger
	auditTimeout time.Duration
}

func New(d Deps) *Server {
	timeout := d.AuditTimeout
	if timeout <= 0 {
		timeout = defaultAuditTimeout
	}
	return &Server{
		audits:       d.Audits,
		businesses:   d.Businesses,
		reports:      d.Reports,
		runner:       d.Runner,
		store:        d.Store,
		metrics:      d.Metrics,
		log:          d.Log.With().Str("component", "http").Logger(),
		auditTimeout: timeout,
	}
}

// Routes returns the full router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.InstrumentHandler)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.root)
		r.Get("/health", s.health)
		r.Post("/oauth/connect", s.connect)

		r.Post("/session/business-info", s.createBusinessInfo)
		r.Get("/session/business-info/{id}", s.getBusinessInfo)
		r.Post("/business/stage", s.resolveStage)
		r.Get("/business/stages", s.listStages)

		r.Route("/audit", func(r chi.Router) {
			r.Post("/run", s.runAudit)
			r.Get("/sessions", s.listSessions)
			r.Post("/evaluate", s.evaluate)
			r.Get("/{id}", s.getAudit)
			r.Post("/{id}/update-assumptions", s.updateAssumptions)
			r.Get("/{id}/pdf", s.pdf)
			r.Get("/{id}/report", s.report)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "CRM Audit API"})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
