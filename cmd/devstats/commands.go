package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/devstats/internal/config"
	"github.com/pders01/devstats/internal/debuglog"
	"github.com/pders01/devstats/internal/devto"
	"github.com/pders01/devstats/internal/pipeline"
	"github.com/pders01/devstats/internal/storage"
)

var flagRefreshLastDay bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new analytics for every published article and rebuild the derived views",
	RunE: func(_ *cobra.Command, _ []string) error {
		runner, cleanup, err := newNetworkRunner()
		if err != nil {
			return err
		}
		defer cleanup()
		runner.SetRefreshLastDay(flagRefreshLastDay)

		if !flagQuiet {
			showBanner()
		}

		sum, err := runner.Sync()
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

var referrersCmd = &cobra.Command{
	Use:   "referrers",
	Short: "Backfill referrer domains into article records that lack them",
	RunE: func(_ *cobra.Command, _ []string) error {
		runner, cleanup, err := newNetworkRunner()
		if err != nil {
			return err
		}
		defer cleanup()

		sum, err := runner.BackfillReferrers()
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Rebuild the account summary from the stored records",
	RunE: func(_ *cobra.Command, _ []string) error {
		runner, err := newLocalRunner()
		if err != nil {
			return err
		}
		if err := runner.RebuildAccount(); err != nil {
			return err
		}
		fmt.Println("Account summary rebuilt.")
		return nil
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rebuild the top-article rankings from the stored records",
	RunE: func(_ *cobra.Command, _ []string) error {
		runner, err := newLocalRunner()
		if err != nil {
			return err
		}
		if err := runner.RebuildRankings(); err != nil {
			return err
		}
		fmt.Println("Rankings rebuilt.")
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent run summaries from the journal",
	RunE: func(_ *cobra.Command, _ []string) error {
		journal, err := storage.OpenJournal(cfg.Data.Journal)
		if err != nil {
			return err
		}
		defer journal.Close()

		runs, err := journal.Recent(20)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs yet.")
			return nil
		}
		printRuns(runs)
		return nil
	},
}

var configGenCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate a default configuration file",
	Run: func(_ *cobra.Command, _ []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "devstats", "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("devstats %s\n", Version)
		fmt.Println("dev.to analytics collector")
		fmt.Println("github.com/pders01/devstats")
	},
}

func init() {
	syncCmd.Flags().BoolVar(&flagRefreshLastDay, "refresh-last-day", false,
		"Re-fetch the most recently recorded day in case it was incomplete")
}

// newNetworkRunner builds a runner with API access. Missing credentials are
// fatal here, before any per-article work starts.
func newNetworkRunner() (*pipeline.Runner, func(), error) {
	apiKey, err := config.LoadAPIKey()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewStore(cfg.Data.Dir)
	if err != nil {
		return nil, nil, err
	}

	runner := pipeline.NewRunner(store, devto.NewClient(cfg, apiKey), cfg)

	cleanup := func() {}
	if journal, jerr := storage.OpenJournal(cfg.Data.Journal); jerr != nil {
		debuglog.Warnf("opening run journal: %v", jerr)
	} else {
		runner.SetJournal(journal)
		cleanup = func() { journal.Close() }
	}
	return runner, cleanup, nil
}

// newLocalRunner builds a runner for commands that only reshape what is
// already on disk.
func newLocalRunner() (*pipeline.Runner, error) {
	store, err := storage.NewStore(cfg.Data.Dir)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, cfg), nil
}
