package main

import (
	"errors"

	"github.com/spf13/cobra"

	"dirkeep/internal/archive"
	"dirkeep/internal/exitcodes"
)

var (
	outputDir       string
	archiveName     string
	archiveExcludes []string
)

var archiveCmd = &cobra.Command{
	Use:   "archive <target>...",
	Short: "Create a compressed tar archive of the target paths",
	Long:  "Pipes external tar through pigz (or gzip) to produce output-dir/name. Fails when no targets are given, no compression tool is on PATH, or the archive file is absent after the pipeline.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory the archive is written to")
	archiveCmd.Flags().StringVarP(&archiveName, "name", "n", "archive.tar.gz", "Archive file name")
	archiveCmd.Flags().StringArrayVar(&archiveExcludes, "exclude", nil, "Pattern passed to tar --exclude (repeatable)")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	archiver := archive.NewArchiver(logger, cfg.Archive.Compressors, db)
	archiver.SetMetrics(mtr)

	path, err := archiver.Create(cmd.Context(), archive.Request{
		OutputDir: outputDir,
		Name:      archiveName,
		Targets:   args,
		Excludes:  archiveExcludes,
	})
	if err != nil {
		// Misconfiguration aborts before any archive work
		if errors.Is(err, archive.ErrNoTargets) || errors.Is(err, archive.ErrNoCompressor) {
			return &exitError{exitcodes.InvalidConfig, err}
		}
		return &exitError{exitcodes.ArchiveError, err}
	}

	logger.Infof("PASS: archive created at %s", path)
	return nil
}
