package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/devstats/internal/config"
	"github.com/pders01/devstats/internal/debuglog"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	flagConfig   string
	flagDataDir  string
	flagLogLevel string
	flagQuiet    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "devstats",
	Short:         "Incremental dev.to article analytics collector",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded

		if flagDataDir != "" {
			cfg.Data.Dir = flagDataDir
		}
		if flagLogLevel != "" {
			cfg.Log.Level = flagLogLevel
		}

		level := debuglog.ParseLogLevel(cfg.Log.Level)
		if err := debuglog.Setup(level, cfg.Log.Path); err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		debuglog.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Skip startup banner")

	rootCmd.AddCommand(syncCmd, accountCmd, rankCmd, referrersCmd, runsCmd, configGenCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
