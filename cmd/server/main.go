package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mesikahq/patient-dashboard/internal/api"
	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/config"
	"github.com/mesikahq/patient-dashboard/internal/directory"
	"github.com/mesikahq/patient-dashboard/internal/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "patient-dashboard")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	// Initialize Elasticsearch client; indexing is off without an address
	esClient, err := audit.NewElasticsearchClient(
		cfg.Audit.ElasticsearchURL,
		cfg.Audit.ElasticsearchUsername,
		cfg.Audit.ElasticsearchPassword,
	)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
	}
	if esClient == nil {
		logger.Info("Audit indexing disabled")
	}

	// Initialize audit service
	auditService := audit.NewService(esClient, logging.NewAuditLogger(cfg.Log.Level, cfg.Log.Format))

	// Start the roster load; pages show the loading view until it settles
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := directory.NewState()
	loader := directory.NewLoader(directory.LoaderConfig{
		URL:      cfg.API.URL,
		Username: cfg.API.Username,
		Password: cfg.API.Password,
		Timeout:  cfg.API.Timeout,
	}, logger, auditService)
	go loader.Run(ctx, state)

	// Initialize router
	handler := api.NewHandler(state, auditService, logger)
	router := api.NewRouter(handler, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	engine, err := router.SetupRouter(logger)
	if err != nil {
		logger.Fatal("Failed to set up router", zap.Error(err))
	}

	// Create server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr), zap.Bool("tls", cfg.Server.TLS.Enabled))
		var err error
		if cfg.Server.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Abandon a roster request that is still in flight
	cancel()

	// The server has 5 seconds to finish the requests it is handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
