package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meglermonitor/backend/internal/listing"
	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/config"
	"github.com/meglermonitor/backend/pkg/database"
	"github.com/meglermonitor/backend/pkg/logger"
)

// dbCheckCmd represents the db-check command
var dbCheckCmd = &cobra.Command{
	Use:   "db-check",
	Short: "Verify database connectivity",
	Long: `Connects to the configured database, pings it and reports the
latest snapshot day.

Example:
  go run ./cmd/megler db-check`,
	RunE: runDBCheck,
}

func init() {
	rootCmd.AddCommand(dbCheckCmd)
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection OK")

	pg := store.NewPostgres(db.Pool)
	day, found, err := pg.LatestSnapshotDay(cmd.Context(), listing.Filter{})
	if err != nil {
		return fmt.Errorf("query latest snapshot: %w", err)
	}

	if found {
		fmt.Printf("Latest snapshot day: %s\n", day)
	} else {
		fmt.Println("No snapshots found")
	}

	return nil
}
