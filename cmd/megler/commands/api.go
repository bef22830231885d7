package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meglermonitor/backend/internal/analytics"
	"github.com/meglermonitor/backend/internal/api"
	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/config"
	"github.com/meglermonitor/backend/pkg/database"
	"github.com/meglermonitor/backend/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the analytics REST API server.

Endpoints:
  GET /health
  GET /api/listings
  GET /api/metrics
  GET /api/agg/brokers
  GET /api/agg/chains
  GET /api/agg/deltas
  GET /api/agg/districts
  GET /api/agg/commissions/brokers
  GET /api/agg/commissions/chains
  GET /api/agg/commissions/trends
  GET /api/broker/{slug}
  GET /api/meta/filters

Example:
  go run ./cmd/megler api
  go run ./cmd/megler api --port 8080 --sample`,
	RunE: runAPIServer,
}

var (
	apiPort   string
	apiSample bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiSample, "sample", false, "serve from the bundled sample dataset")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if apiPort != "" {
		cfg.Port = apiPort
	}
	if apiSample {
		cfg.UseSample = true
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"sample": cfg.UseSample,
	}).Info("Initializing API server")

	// 3. Choose the listing backend
	var (
		repo    store.Repository
		cleanup func()
	)
	if cfg.UseSample {
		repo = store.NewSample(cfg.SamplePath)
		log.WithField("path", cfg.SamplePath).Info("Using sample dataset")
	} else {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		cleanup = db.Close
		repo = store.NewPostgres(db.Pool)
		log.Info("Connected to database")
	}
	if cleanup != nil {
		defer cleanup()
	}

	// 4. Create the analytics service and HTTP layer
	service := analytics.New(repo, log)
	handler := api.NewHandler(service, log)
	router := api.NewRouter(cfg, log, handler)
	server := api.New(cfg, log, router)

	// 5. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
