package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/di"
	"mindcanvas/infrastructure/persistence/file"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	// Load the document, or start with a fresh mindmap when none exists
	if doc, err := container.Repo.Load(); err != nil {
		if !pkgerrors.IsNotFound(err) {
			logger.Fatal("Failed to load document", zap.Error(err))
		}
		logger.Info("No document found, starting a new mindmap",
			zap.String("path", container.Repo.Path()))
		if err := container.Facade.InitMindmap(); err != nil {
			logger.Fatal("Failed to initialize mindmap", zap.Error(err))
		}
	} else {
		if err := container.Store.Deserialize(doc); err != nil {
			logger.Fatal("Document is invalid", zap.Error(err))
		}
		container.Store.MarkClean()
		logger.Info("Document loaded",
			zap.String("path", container.Repo.Path()),
			zap.Int("nodes", container.Store.NodeCount()),
			zap.Int("connections", container.Store.ConnectionCount()))
	}

	// Background loops: render frames, sampling, autosave
	container.Start()
	defer container.Stop()

	// Watch for external edits to the document file
	if cfg.Document.WatchFile {
		docWatcher, err := file.NewWatcher(container.Store, container.Repo, logger)
		if err != nil {
			logger.Fatal("Failed to watch document", zap.Error(err))
		}
		defer docWatcher.Stop()
	}

	// Hot reload of the config file in development
	cfgWatcher, err := config.NewWatcher(*configPath, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to watch configuration", zap.Error(err))
	}
	defer cfgWatcher.Stop()

	// Setup routes
	handler := container.Router.Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.Server.Address),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	// Clean up resources
	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
