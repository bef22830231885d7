package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meglermonitor/backend/internal/listing"
	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/config"
)

// sampleCheckCmd represents the sample-check command
var sampleCheckCmd = &cobra.Command{
	Use:   "sample-check",
	Short: "Validate the bundled sample dataset",
	Long: `Loads the sample dataset and prints a short summary.

Useful for verifying SAMPLE_PATH before serving from it.

Example:
  go run ./cmd/megler sample-check`,
	RunE: runSampleCheck,
}

func init() {
	rootCmd.AddCommand(sampleCheckCmd)
}

func runSampleCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sample := store.NewSample(cfg.SamplePath)

	rows, err := sample.FilteredListings(cmd.Context(), listing.Filter{})
	if err != nil {
		return fmt.Errorf("load sample: %w", err)
	}

	anchor, found, err := sample.LatestSnapshotDay(cmd.Context(), listing.Filter{})
	if err != nil {
		return err
	}

	days := map[listing.Day]struct{}{}
	brokers := map[string]struct{}{}
	chains := map[string]struct{}{}
	sold := 0
	for i := range rows {
		l := &rows[i]
		days[l.SnapshotDay()] = struct{}{}
		if l.Broker != nil && *l.Broker != "" {
			brokers[*l.Broker] = struct{}{}
		}
		if l.Chain != nil && *l.Chain != "" {
			chains[*l.Chain] = struct{}{}
		}
		if l.Sold() {
			sold++
		}
	}

	fmt.Printf("Sample dataset: %s\n", cfg.SamplePath)
	fmt.Printf("  listings:      %d\n", len(rows))
	fmt.Printf("  sold:          %d\n", sold)
	fmt.Printf("  snapshot days: %d\n", len(days))
	fmt.Printf("  brokers:       %d\n", len(brokers))
	fmt.Printf("  chains:        %d\n", len(chains))
	if found {
		fmt.Printf("  latest day:    %s\n", anchor)
	} else {
		fmt.Println("  latest day:    none")
	}

	return nil
}
