package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decoquote/internal/config"
	"decoquote/internal/notify"
	"decoquote/internal/pricing"
	"decoquote/internal/quote"
	"decoquote/internal/server"
	"decoquote/internal/storage"
	"decoquote/internal/storage/migrations"
	"decoquote/pkg/api"
	"decoquote/pkg/logger"
	"decoquote/pkg/redis"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	redisClient := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.BundleTTL)
	defer redisClient.Close()

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer pgStorage.Close()

	if err := migrations.RunMigrations(ctx, pgStorage.DB()); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	apiClient := api.NewClient(cfg.Pricing.BaseURL, cfg.Pricing.Key, cfg.Pricing.Timeout, zapLogger)

	notifier, err := notify.New(cfg.Telegram, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init Telegram notifier", zap.Error(err))
	}

	engine, err := pricing.NewEngine(pricing.DefaultMethods())
	if err != nil {
		zapLogger.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	validity := time.Duration(cfg.Quote.ValidityDays) * 24 * time.Hour
	quoteService := quote.NewService(engine, apiClient, redisClient, pgStorage, notifierOrNil(notifier), validity, zapLogger)

	srv := server.New(cfg.Server, quoteService, zapLogger)
	if err := srv.Run(ctx, cfg.Server.ShutdownTimeout); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}

	zapLogger.Info("Server shutdown gracefully")
}

// notifierOrNil keeps a disabled notifier out of the service: a typed nil
// inside the Notifier interface would dodge the service's nil check.
func notifierOrNil(t *notify.Telegram) quote.Notifier {
	if t == nil {
		return nil
	}
	return t
}
