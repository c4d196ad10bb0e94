package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/server"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, stopJanitor context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	stopJanitor()

	// Sessions are closed after the last request so their cache entries are removed
	if err := apiServer.Close(ctx); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	db, err := server.OpenCatalogDB(startupCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to prepare catalog database", zap.Error(err))
	}

	sessionCache, redisClient := server.BuildCache(startupCtx, cfg, log)

	// The provider client lives for the whole process, so it is not tied to startupCtx
	contentProvider, err := server.BuildProvider(context.Background(), cfg, db, log)
	if err != nil {
		log.Fatal("Failed to create content provider", zap.Error(err))
	}

	srv := server.NewServer(cfg, log, server.Dependencies{
		Provider: contentProvider,
		Cache:    sessionCache,
		Redis:    redisClient,
		DB:       db,
	})

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go srv.RunSessionJanitor(janitorCtx)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, stopJanitor, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
