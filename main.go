package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/config"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/database"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/handlers"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/logging"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/mcp"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/middleware"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/repositories"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("run_store", cfg.Database.Enabled),
		zap.String("presentation_sheet", cfg.Dictionary.PresentationSheet),
		zap.Int64("max_upload_mb", cfg.Dictionary.MaxUploadMB))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run store is optional; without it runs are not persisted and the run routes are absent.
	var (
		runs  repositories.CatalogRunRepository
		store handlers.Pinger
	)
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("Failed to open run store", zap.Error(err))
		}
		defer db.Close()
		runs = repositories.NewCatalogRunRepository(db)
		store = db
	}

	dictionaryService := services.NewDictionaryService(cfg.Dictionary, runs, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, store, logger).RegisterRoutes(mux)
	handlers.NewNoticeHandler(logger).RegisterRoutes(mux)
	handlers.NewDictionaryHandler(dictionaryService, cfg.Dictionary, logger).RegisterRoutes(mux)

	mcpServer := mcp.NewServer("ekaya-dictionary", cfg.Version, logger)
	tools.RegisterHealthTool(mcpServer.MCP(), &tools.HealthToolDeps{
		Version: cfg.Version,
		Service: dictionaryService,
		BaseDir: cfg.Dictionary.MCPBaseDir,
	})
	tools.RegisterDictionaryTools(mcpServer.MCP(), &tools.DictionaryToolDeps{
		Service:      dictionaryService,
		BaseDir:      cfg.Dictionary.MCPBaseDir,
		MaxFileBytes: cfg.Dictionary.MaxUploadBytes(),
		Logger:       logger.Named("mcp-tools"),
	})
	handlers.NewMCPHandler(mcpServer, logger.Named("mcp")).RegisterRoutes(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestLogger(logger.Named("http"))(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		useTLS := cfg.TLSCertPath != "" && cfg.TLSKeyPath != ""
		logger.Info("Starting ekaya-dictionary",
			zap.String("addr", addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", useTLS))
		if useTLS {
			serveErr <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
