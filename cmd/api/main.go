package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/myron98980/halloween-party-app/internal/app"
	"github.com/myron98980/halloween-party-app/internal/clock"
	"github.com/myron98980/halloween-party-app/internal/config"
	"github.com/myron98980/halloween-party-app/internal/events"
	"github.com/myron98980/halloween-party-app/internal/mirror"
	"github.com/myron98980/halloween-party-app/internal/monitoring"
	"github.com/myron98980/halloween-party-app/internal/session"
	"github.com/myron98980/halloween-party-app/internal/sheets"
	"github.com/myron98980/halloween-party-app/internal/storage/postgres"
	transporthttp "github.com/myron98980/halloween-party-app/internal/transport/http"
	"github.com/myron98980/halloween-party-app/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.WithError(err).Fatal("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	metrics := monitoring.New()
	broker := events.NewBroker(logger)
	defer broker.Close()

	repo := postgres.NewTicketRepository(pool)
	ticketSvc := app.NewTicketService(repo, clock.NewSystem(), broker, logger)
	sessions := session.NewManager(cfg.JWTSecret, clock.NewSystem())

	runCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	aggregator := app.NewAggregator(logger)
	go aggregator.Run(runCtx, broker.SubscribeSnapshots())

	var cronRunner *cron.Cron
	if cfg.MirrorEnabled() {
		sheetAPI, err := sheets.NewClient(startupCtx, cfg.SpreadsheetID,
			option.WithCredentialsFile(cfg.CredentialsFile))
		if err != nil {
			logger.WithError(err).Fatal("sheets client")
		}

		rows := mirror.NewRowCache(sheetAPI, logger)
		if err := rows.Refresh(startupCtx, mirror.TabVIP, mirror.TabGeneral); err != nil {
			logger.WithError(err).Warn("initial row cache scan failed")
		}

		cronRunner = cron.New()
		if err := rows.ScheduleRefresh(cronRunner, cfg.RowCacheRefresh, mirror.TabVIP, mirror.TabGeneral); err != nil {
			logger.WithError(err).Fatal("schedule row cache refresh")
		}
		cronRunner.Start()

		writer := mirror.NewWriter(sheetAPI, rows, clock.NewSystem(), logger, metrics)
		go writer.Run(runCtx, broker.SubscribeChanges())
		logger.WithField("spreadsheet", cfg.SpreadsheetID).Info("spreadsheet mirror enabled")
	} else {
		logger.Info("spreadsheet mirror disabled, no SHEETS_SPREADSHEET_ID set")
	}

	// Prime the dashboard with the current collection before serving.
	if err := ticketSvc.PublishInitialSnapshot(startupCtx); err != nil {
		logger.WithError(err).Warn("initial snapshot failed")
	}

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Tickets:     ticketSvc,
		Directory:   aggregator,
		Dashboard:   aggregator,
		Sessions:    sessions,
		Metrics:     metrics,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.WithField("port", cfg.Port).Info("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server shutdown error")
	}

	if cronRunner != nil {
		<-cronRunner.Stop().Done()
	}
	stopWorkers()
	logger.Info("server stopped")
}
