package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/example/wash-dispatch/internal/config"
	"github.com/example/wash-dispatch/internal/dispatch"
	"github.com/example/wash-dispatch/internal/gateway"
	"github.com/example/wash-dispatch/internal/history"
	httpapi "github.com/example/wash-dispatch/internal/http"
	"github.com/example/wash-dispatch/internal/ingest"
	"github.com/example/wash-dispatch/internal/logging"
	"github.com/example/wash-dispatch/internal/notify"
	"github.com/example/wash-dispatch/internal/payments"
	"github.com/example/wash-dispatch/internal/presence"
	"github.com/example/wash-dispatch/internal/scheduler"
	"github.com/example/wash-dispatch/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.PGDSN != "" && cfg.RunMigrations {
		runMigrations(logger, cfg.PGDSN)
	}

	var store presence.Store
	if cfg.RedisAddr != "" {
		store = presence.NewRedisStoreFromAddr(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory presence store")
		store = presence.NewMemoryStore()
	}

	var hist history.Appender = history.NewMemoryLog()
	var orderStore storage.OrderStore = storage.NewMemoryStore()
	if cfg.PGDSN != "" {
		if pgHist, err := history.NewPostgresLog(cfg.PGDSN); err == nil {
			hist = pgHist
		} else {
			logger.Error("history store unavailable", "error", err)
		}
		if pg, err := storage.NewPostgresStore(cfg.PGDSN); err == nil {
			orderStore = pg
		} else {
			logger.Error("order store unavailable", "error", err)
		}
	}

	var pay payments.Gateway = payments.Noop{}
	if os.Getenv("STRIPE_API_KEY") != "" {
		pay = payments.NewStripeClient()
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.FCMEndpoint != "" {
		notifier = notify.NewFCMNotifier(cfg.FCMEndpoint, cfg.FCMKey)
	}

	hub := gateway.NewHub(logger)
	engine := dispatch.NewEngine(logger, store, scheduler.New(), hist, pay, notifier, orderStore, hub,
		dispatch.Config{
			DefaultTimeoutSec:  cfg.OrderTimeoutSec,
			ArrivalThresholdKm: cfg.ArrivalThresholdKm,
			Currency:           cfg.Currency,
		})
	hub.Bind(engine)

	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		engine.SetLocationPublisher(kp)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.RunOnlineBroadcast(ctx, cfg.BroadcastInterval)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(hub, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("dispatch server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func runMigrations(logger *slog.Logger, dsn string) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_dispatch.sql"))
	if err != nil {
		logger.Error("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Error("migration exec error", "error", err)
		return
	}
	logger.Info("migration applied", "file", "001_create_dispatch.sql")
}
