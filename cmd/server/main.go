package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/stock-ledger/internal/config"
	"github.com/diewo77/stock-ledger/internal/obs"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := obs.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) (err error) {
	ctx := context.Background()

	shutdownTracing, err := obs.SetupTracing(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	shutdownLogging, err := obs.SetupLogging(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("log export: %w", err)
	}
	shutdownOtel := obs.JoinShutdown(shutdownTracing, shutdownLogging)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errors.Join(err, shutdownOtel(sctx))
		_ = logger.Sync()
	}()
	if cfg.Otel.Endpoint != "" {
		logger = obs.WithOTLP(logger, cfg.Otel.ServiceName)
	}

	deps, err := buildDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if *migrateOnlyFlag {
		if err := deps.migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("migrations completed successfully")
		return nil
	}
	if *seedOnlyFlag {
		if err := deps.seed(); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		logger.Info("seeding completed successfully")
		return nil
	}

	if cfg.App.Migrations {
		if err := deps.migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("migrations completed")
	}
	if cfg.Database.Seed {
		if err := deps.seed(); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(deps, logger),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("driver", cfg.Database.Driver),
			zap.Bool("dev", cfg.App.Dev()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-srvErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		logger.Info("shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
