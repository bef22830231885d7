package main

import (
	"os"

	"github.com/meglermonitor/backend/cmd/megler/commands"
)

// main is the entry point for the MeglerMonitor CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
