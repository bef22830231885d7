package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meglermonitor/backend/internal/refresh"
	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/config"
	"github.com/meglermonitor/backend/pkg/database"
	"github.com/meglermonitor/backend/pkg/logger"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the reporting materialized views",
	Long: `Refreshes the materialized views the reporting queries read from.

Runs on a cron schedule (REFRESH_SCHEDULE) by default, or a single
time with --once.

Example:
  go run ./cmd/megler refresh
  go run ./cmd/megler refresh --once`,
	RunE: runRefresh,
}

var (
	refreshOnce     bool
	refreshSchedule string
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshOnce, "once", false, "refresh once and exit")
	refreshCmd.Flags().StringVar(&refreshSchedule, "schedule", "", "cron schedule (overrides REFRESH_SCHEDULE)")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.UseSample {
		return fmt.Errorf("refresh requires a database backend, not the sample dataset")
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	schedule := cfg.RefreshSchedule
	if refreshSchedule != "" {
		schedule = refreshSchedule
	}

	runner := refresh.NewRunner(store.NewPostgres(db.Pool), log, schedule)

	if refreshOnce {
		return runner.RunOnce(cmd.Context())
	}

	if schedule == "" {
		return fmt.Errorf("no schedule configured; set REFRESH_SCHEDULE or pass --once")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runner.Start(ctx)
}
