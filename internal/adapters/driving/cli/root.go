// Package cli implements the command-line interface for tracksync.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/umoja-health/tracksync/internal/core/ports/driving"
)

// version is set by Execute from build information.
var version = "dev"

// syncer is the pipeline behind the commands. Wired lazily on first
// use; tests swap in a mock.
var syncer driving.Syncer

// cleanup releases wired resources after a command finishes.
var cleanup func()

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "tracksync",
	Short: "Mirror community health reports into a DHIS2 tracker",
	Long: `tracksync mirrors death review and verbal autopsy reports from a
CHT CouchDB instance into DHIS2 tracker programs. Historical reports
are backfilled first, then the live change feed is tailed. Every
report is delivered exactly once, recorded in a local ledger.`,
	SilenceUsage: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.tracksync/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, error")
}

// Execute runs the CLI with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
