package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dirkeep/internal/config"
	"dirkeep/internal/exitcodes"
	"dirkeep/internal/history"
	"dirkeep/internal/logging"
	"dirkeep/internal/metrics"
)

var (
	cfgFile   string
	verbose   bool
	historyDB string

	cfg    *config.Config
	logger *logrus.Logger
	db     *history.DB
	mtr    *metrics.Metrics
)

var rootCmd = &cobra.Command{
	Use:               "dirkeep",
	Short:             "Prune directories down to a keep list, or archive them away",
	Long:              "dirkeep removes every direct child of a directory except a caller-supplied keep list, and creates compressed tar archives of target paths via external tar and pigz/gzip.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Per-entry progress output")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history-db", "", "Path to operation history database (overrides config)")
}

// setup loads configuration and wires logging, metrics, and the
// optional history database before any subcommand runs
func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		c, err := config.Load(cfgFile)
		if err != nil {
			return &exitError{exitcodes.InvalidConfig, err}
		}
		cfg = c
	} else {
		cfg = config.Default()
	}
	if historyDB != "" {
		cfg.HistoryDBPath = historyDB
	}

	logger = logging.New(cfg, verbose)
	mtr = metrics.New()

	if cfg.HistoryDBPath != "" {
		d, err := history.Open(cfg.HistoryDBPath)
		if err != nil {
			return &exitError{exitcodes.InvalidConfig, err}
		}
		db = d
	}
	return nil
}

// finish flushes metrics and closes the history database. Called from
// main so it runs even when a command returned an error.
func finish() {
	if db != nil {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("Failed to close history database")
		}
	}
	if mtr != nil && cfg != nil {
		if err := mtr.Push(cfg.Metrics.PushGateway, cfg.Metrics.JobName); err != nil {
			logger.WithError(err).Warn("Failed to push metrics")
		}
	}
}
