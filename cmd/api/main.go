package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workflowstudio/infrastructure/config"
	"workflowstudio/infrastructure/di"
	"workflowstudio/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	router := rest.NewRouter(
		container.CommandBus,
		container.QueryBus,
		container.Logger,
		routerOptions(container),
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.StorageBackend),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	go evictIdleSessions(ctx, container)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	if open := container.Sessions.Len(); open > 0 {
		container.Logger.Warn("Discarding open workflows", zap.Int("open", open))
	}

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

func routerOptions(c *di.Container) rest.Options {
	opts := rest.Options{Debug: c.Config.Environment == "development"}
	if c.Config.EnableCORS {
		opts.CORSOrigins = c.Config.CORSOrigins
	}
	if c.Config.EnableTracing {
		opts.Tracer = c.Tracer
	}
	return opts
}

// evictIdleSessions closes workflows untouched for longer than the
// session timeout until ctx is done.
func evictIdleSessions(ctx context.Context, c *di.Container) {
	timeout := c.DomainConfig.SessionTimeout
	if timeout <= 0 {
		return
	}

	ticker := time.NewTicker(timeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sessions.EvictIdle(timeout); n > 0 {
				c.Logger.Info("Evicted idle workflows", zap.Int("count", n))
			}
		}
	}
}
