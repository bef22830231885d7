package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "megler",
	Short: "MeglerMonitor - brokerage market analytics",
	Long: `MeglerMonitor backend CLI

Aggregates daily listing snapshots into broker, chain and district
statistics and serves them over a REST API.

Usage:
  go run ./cmd/megler [command]

Examples:
  go run ./cmd/megler api
  go run ./cmd/megler refresh --once
  go run ./cmd/megler sample-check`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
