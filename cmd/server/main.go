// @title                      GST Billing API
// @version                    1.0
// @description                Invoice editing, GST totals and bill management.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gstbilling/internal/config"
	"gstbilling/internal/infra"
	"gstbilling/internal/invoice"
	"gstbilling/internal/metrics"
	"gstbilling/internal/repository"
	"gstbilling/internal/router"
	"gstbilling/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const draftJanitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs the job queues and the words cache. Without it the API
	// still serves; PDFs are then rendered on demand only.
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, queues and words cache disabled")
		rdb = nil
	}

	m := metrics.New()

	var words invoice.WordsConverter = infra.IndianWords{}
	var breaker *infra.CircuitBreaker
	if cfg.WordsServiceURL != "" {
		cbCfg := infra.DefaultCBConfig()
		cbCfg.OnStateChange = func(name string, from, to infra.CBState) {
			m.SetBreakerState(name, int(to))
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		}
		breaker = infra.NewCircuitBreaker(cbCfg)
		words = infra.NewWordsClient(cfg.WordsServiceURL, cfg.WordsTimeout(), breaker)
		log.Info().Str("url", cfg.WordsServiceURL).Msg("using remote words service")
	}

	mailer := infra.NewMailer(cfg)
	deps := router.Deps{
		DB:           db,
		Redis:        rdb,
		Words:        words,
		WordsBreaker: breaker,
		EmailEnabled: mailer.Enabled(),
		Metrics:      m,
	}

	// Worker handlers are wired here (composition root) so the pool has the
	// same repositories and infrastructure as the API.
	var pool *worker.Pool
	if rdb != nil {
		dispatcher := worker.NewDispatcher(rdb)
		deps.Jobs = dispatcher
		pool = worker.StartWorkerPool(ctx, rdb, worker.WorkerHandlers{
			PDF:   worker.NewPDFWorker(repository.NewBillRepository(db), dispatcher, infra.CompanyFromConfig(cfg), cfg.PDFStoragePath),
			Email: worker.NewEmailWorker(mailer),
		}, cfg.WorkerPoolSize, m)
	}

	app := router.New(cfg, deps)
	app.Drafts.StartJanitor(ctx, draftJanitorInterval)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.Engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("GST billing API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
