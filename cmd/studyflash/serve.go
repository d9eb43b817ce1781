package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/api"
	"github.com/vytor/studyflash/internal/assignment"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/metrics"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/study"
	"github.com/vytor/studyflash/internal/worker"
)

const sessionSweepInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Default()

	log.Info("===========================================")
	log.Info("StudyFlash Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("retry_worker_count=%d", cfg.RetryWorkerCount)
	log.Debug("retry_queue_size=%d", cfg.RetryQueueSize)
	log.Debug("session_ttl=%s", cfg.SessionTTL())
	log.Debug("llm_provider=%q", cfg.LLM.Provider)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	deckRepo := sqlite.NewDeckRepository(database.DB)
	cardRepo := sqlite.NewCardRepository(database.DB)
	reviewRepo := sqlite.NewReviewRepository(database.DB)

	m := metrics.Get()
	retryPool := worker.NewPool(cfg.RetryWorkerCount, cfg.RetryQueueSize)
	queue := jobs.NewWorkerQueue(retryPool, cardRepo, cfg.RetryMaxAttempts, func(cardID int64, err error) {
		m.ReviewWriteFailures.WithLabelValues("dropped").Inc()
		log.Error("review for card %d lost after retries: %v", cardID, err)
	})

	store := study.NewStore(cfg.SessionTTL())
	parser, err := newAssignmentParser(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	srv := &api.Server{
		DB:                 database,
		DeckService:        services.NewDeckService(deckRepo, cardRepo, reviewRepo),
		StudyService:       services.NewStudyService(cardRepo, deckRepo, store, queue),
		QuizService:        services.NewQuizService(sqlite.NewQuizRepository(database.DB), deckRepo),
		PlannerService:     services.NewPlannerService(sqlite.NewActivityRepository(database.DB)),
		AssignmentService:  services.NewAssignmentService(sqlite.NewAssignmentRepository(database.DB), parser),
		CORSOrigins:        cfg.CORSOrigins,
		ParseRatePerMinute: cfg.ParseRatePerMinute,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	}

	retryPool.Start(ctx)
	go store.Run(ctx, sessionSweepInterval)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		log.Info("received signal %v, initiating graceful shutdown", sig)
	case err := <-serveErr:
		if err != nil {
			log.Error("HTTP server error: %v", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Retries still in flight are cancelled; the pool must be down before
	// the database closes. Queued retries go through the give-up callback.
	log.Debug("stopping retry pool (%d retries queued)", retryPool.QueueSize())
	if n := retryPool.Stop(); n > 0 {
		log.Warn("%d queued review retries dropped at shutdown", n)
	}
	cancel()

	log.Info("===========================================")
	log.Info("StudyFlash Server Stopped")
	log.Info("===========================================")
	return nil
}

// newAssignmentParser returns nil when no provider is configured, which
// leaves free-text parsing disabled.
func newAssignmentParser(ctx context.Context, cfg llm.Config) (assignment.Parser, error) {
	log := logger.Default()
	provider, err := llm.NewProvider(ctx, cfg)
	if stderrors.Is(err, llm.ErrDisabled) {
		log.Info("no LLM provider configured, assignment parsing disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("assignment parsing uses %s (%s)", cfg.Provider, provider.ModelID())
	return assignment.NewLLMParser(provider), nil
}
