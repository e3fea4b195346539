package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dirkeep/internal/exitcodes"
	"dirkeep/internal/prune"
	"dirkeep/internal/safety"
)

var (
	keepList []string
	dryRun   bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune <parent-dir>",
	Short: "Remove every direct child of a directory except the named entries",
	Long:  "Deletes all direct children of the parent directory, hidden entries included, except those named by --keep. Removal success is judged by the entry no longer existing afterwards; individual failures are counted but never abort the run.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().StringSliceVar(&keepList, "keep", nil, "Comma-delimited child names to preserve (repeatable)")
	pruneCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview removals without deleting")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	if dryRun {
		logger.Info("DRY RUN MODE: No entries will be deleted")
	}

	pruner := prune.NewPruner(logger, dryRun, db)
	pruner.SetValidator(safety.NewValidator(cfg.Safety.ProtectedPaths))
	pruner.SetMetrics(mtr)

	report, err := pruner.Prune(args[0], keepList)
	if err != nil {
		return &exitError{exitcodes.InvalidParent, err}
	}

	if !report.OK() {
		logger.Errorf("FAIL: %d of %d entries could not be removed", report.Failed, report.Processed)
		return &exitError{exitcodes.PruneFailures, fmt.Errorf("prune finished with %d failed entries", report.Failed)}
	}

	logger.Infof("PASS: removed %d, skipped %d, failed 0", report.Removed, report.Skipped)
	return nil
}
