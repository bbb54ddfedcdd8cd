package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"country_refresher/internal/config"
	"country_refresher/internal/publisher"
	"country_refresher/internal/render"
	"country_refresher/internal/scheduler"
	"country_refresher/internal/server"
	"country_refresher/internal/service"
	"country_refresher/internal/source/erapi"
	"country_refresher/internal/source/restcountries"
	"country_refresher/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	var refreshPublisher service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		refreshPublisher = rabbitMQ
	}

	countryStore := postgres.NewCountryStore(db)
	txManager := postgres.NewTransactionManager(db)

	countrySource := restcountries.New(restcountries.Config{
		BaseURL:        cfg.Sources.Countries.BaseURL,
		Timeout:        cfg.Sources.Countries.Timeout,
		MaxAttempts:    cfg.Sources.Countries.Retry.MaxAttempts,
		InitialBackoff: cfg.Sources.Countries.Retry.InitialBackoff,
		MaxBackoff:     cfg.Sources.Countries.Retry.MaxBackoff,
	}, logger)

	rateSource := erapi.New(erapi.Config{
		BaseURL:        cfg.Sources.Rates.BaseURL,
		Timeout:        cfg.Sources.Rates.Timeout,
		MaxAttempts:    cfg.Sources.Rates.Retry.MaxAttempts,
		InitialBackoff: cfg.Sources.Rates.Retry.InitialBackoff,
		MaxBackoff:     cfg.Sources.Rates.Retry.MaxBackoff,
	}, logger)

	generator := render.NewGenerator(cfg.Render.SummaryPath, logger)

	refreshService := service.NewRefreshService(
		countrySource,
		rateSource,
		countryStore,
		txManager,
		generator,
		refreshPublisher,
		service.NewRand(),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Refresh.Interval > 0 {
		sched := scheduler.NewScheduler(refreshService, cfg.Refresh.Interval, logger)
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	srv := server.New(refreshService, countryStore, generator.ImagePath(), logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
