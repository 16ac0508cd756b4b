package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-intake/internal/config"
	"pdf-intake/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Wiring
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := config.NewContainer(startCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()
	if syncer, ok := container.Logger.(interface{ Sync() error }); ok {
		defer func() { _ = syncer.Sync() }()
	}

	cfg := container.Config

	// Handlers
	pageHandler, err := handler.NewPageHandler(
		container.DocumentService,
		cfg.GetMaxFileSize(),
		cfg.IsResetEnabled(),
		container.Logger,
	)
	if err != nil {
		container.Logger.Error("Failed to load templates", err)
		return
	}
	documentHandler := handler.NewDocumentHandler(
		container.DocumentService,
		cfg.GetMaxFileSize(),
		container.Logger,
	)

	// Router
	router := handler.NewRouter(
		pageHandler,
		documentHandler,
		handler.RouterOptions{
			AllowedOrigins:  cfg.GetAllowedOrigins(),
			UploadRateLimit: cfg.GetUploadRateLimit(),
			ResetEnabled:    cfg.IsResetEnabled(),
		},
		container.Logger,
	)

	// start server
	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		container.Logger.Error("Server failed to start", err)
		return
	}

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}

	container.Logger.Info("Server exited")
}
