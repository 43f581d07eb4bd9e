package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpadapter "auditpro/internal/adapters/http"
	"auditpro/internal/adapters/memory"
	pg "auditpro/internal/adapters/postgres"
	"auditpro/internal/collector/crm"
	"auditpro/internal/config"
	"auditpro/internal/engine"
	"auditpro/internal/logging"
	"auditpro/internal/metrics"
	"auditpro/internal/ports"
	"auditpro/internal/services/audits"
	"auditpro/internal/services/business"
	"auditpro/internal/services/reports"
	"auditpro/internal/workers/auditrunner"
)

func main() {
	cfg, cfgErr := config.Load()
	log := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNoDatabase) {
		log.Fatal().Err(cfgErr).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	m := metrics.New()
	eng := engine.New(engine.DefaultAssumptions().With(cfg.Assumptions()))
	auditSvc := audits.New(store, eng, crm.MockFactory, log).WithMetrics(m)
	runner := &auditrunner.Runner{
		Jobs:         store,
		Sessions:     store,
		Processor:    auditSvc,
		Concurrency:  cfg.AuditWorkers,
		PollInterval: cfg.PollInterval,
		Metrics:      m,
		Log:          log,
	}

	srv := httpadapter.New(httpadapter.Deps{
		Audits:       auditSvc,
		Businesses:   business.New(store),
		Reports:      reports.New(auditSvc, log),
		Runner:       runner,
		Store:        store,
		Metrics:      m,
		Log:          log,
		AuditTimeout: cfg.AuditTimeout,
	})
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// background job workers; AUDIT_WORKERS=0 leaves only ?wait=true runs
	var workers sync.WaitGroup
	if cfg.AuditWorkers > 0 {
		workers.Add(1)
		go func() {
			defer workers.Done()
			runner.Run(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	workers.Wait()
	log.Info().Msg("stopped")
}

// openStore picks Postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (ports.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set; using in-memory store")
		return memory.New(), func() {}
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		log.Fatal().Err(err).Msg("db migrate")
	}
	log.Info().Msg("using postgres store")
	return db, db.Close
}
