package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"dirkeep/internal/history"
	"dirkeep/internal/metrics"
)

var (
	// ErrNoTargets indicates the request named nothing to archive
	ErrNoTargets = errors.New("no archive targets specified")
	// ErrNoCompressor indicates none of the candidate compression
	// tools is available on PATH
	ErrNoCompressor = errors.New("no compression tool available")
	// ErrArchiveMissing indicates the archive file was absent after
	// the compression pipeline finished
	ErrArchiveMissing = errors.New("archive file missing after compression")
)

// Request describes one archive creation
type Request struct {
	OutputDir string
	Name      string
	Targets   []string
	Excludes  []string
}

// Archiver produces compressed tar archives by piping external tar
// through an external compressor
type Archiver struct {
	logger      *logrus.Logger
	metrics     *metrics.Metrics
	db          *history.DB
	compressors []string

	// Indirection points for tests
	lookPath    func(string) (string, error)
	runPipeline func(ctx context.Context, tarArgs []string, compressor, outPath string) error
}

// NewArchiver creates a new Archiver. compressors lists candidate
// tool names; the first one found on PATH is used.
func NewArchiver(logger *logrus.Logger, compressors []string, db *history.DB) *Archiver {
	if logger == nil {
		logger = logrus.New()
	}
	if len(compressors) == 0 {
		compressors = []string{"pigz", "gzip"}
	}
	a := &Archiver{
		logger:      logger,
		db:          db,
		compressors: compressors,
		lookPath:    exec.LookPath,
	}
	a.runPipeline = a.execPipeline
	return a
}

// SetMetrics attaches a metrics sink
func (a *Archiver) SetMetrics(m *metrics.Metrics) {
	a.metrics = m
}

// Create builds the compressed archive at OutputDir/Name and returns
// its path. The archive file's existence after the pipeline, not the
// pipeline's exit status alone, decides success.
func (a *Archiver) Create(ctx context.Context, req Request) (string, error) {
	if len(req.Targets) == 0 {
		return "", a.fail(req, ErrNoTargets)
	}

	compressor, err := a.findCompressor()
	if err != nil {
		return "", a.fail(req, err)
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", a.fail(req, fmt.Errorf("create output directory: %w", err))
	}

	outPath := filepath.Join(req.OutputDir, req.Name)
	tarArgs := buildTarArgs(req.Targets, req.Excludes)

	a.logger.WithFields(logrus.Fields{
		"archive":    outPath,
		"targets":    len(req.Targets),
		"compressor": compressor,
	}).Info("Creating archive")

	if err := a.runPipeline(ctx, tarArgs, compressor, outPath); err != nil {
		a.logger.WithError(err).Error("Archive pipeline failed")
		// fall through: existence decides
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return "", a.fail(req, fmt.Errorf("%w: %s", ErrArchiveMissing, outPath))
	}

	a.logger.WithFields(logrus.Fields{
		"archive": outPath,
		"size":    info.Size(),
	}).Info("Archive created")

	if a.metrics != nil {
		a.metrics.ArchivesCreated.Inc()
	}
	if a.db != nil {
		if dbErr := a.db.RecordEntry(history.OpArchive, "CREATED", outPath, "archive", info.Size(), ""); dbErr != nil {
			a.logger.WithError(dbErr).Error("Failed to record to history database")
		}
	}
	return outPath, nil
}

// findCompressor returns the first candidate tool present on PATH
func (a *Archiver) findCompressor() (string, error) {
	for _, name := range a.compressors {
		if path, err := a.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrNoCompressor, a.compressors)
}

// buildTarArgs assembles the tar invocation writing to stdout
func buildTarArgs(targets, excludes []string) []string {
	args := []string{"-c"}
	for _, pattern := range excludes {
		args = append(args, "--exclude="+pattern)
	}
	args = append(args, "-f", "-")
	args = append(args, targets...)
	return args
}

// execPipeline runs tar piped into the compressor, writing outPath
func (a *Archiver) execPipeline(ctx context.Context, tarArgs []string, compressor, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer out.Close()

	tarCmd := exec.CommandContext(ctx, "tar", tarArgs...)
	compCmd := exec.CommandContext(ctx, compressor)
	tarCmd.Stderr = os.Stderr
	compCmd.Stderr = os.Stderr
	compCmd.Stdout = out

	pipe, err := tarCmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("tar stdout pipe: %w", err)
	}
	compCmd.Stdin = pipe

	if err := tarCmd.Start(); err != nil {
		return fmt.Errorf("start tar: %w", err)
	}
	if err := compCmd.Start(); err != nil {
		_ = tarCmd.Process.Kill()
		_ = tarCmd.Wait()
		return fmt.Errorf("start %s: %w", compressor, err)
	}

	tarErr := tarCmd.Wait()
	compErr := compCmd.Wait()
	if tarErr != nil {
		return fmt.Errorf("tar: %w", tarErr)
	}
	if compErr != nil {
		return fmt.Errorf("%s: %w", compressor, compErr)
	}
	return out.Sync()
}

// fail records a failed attempt and returns err unchanged
func (a *Archiver) fail(req Request, err error) error {
	if a.metrics != nil {
		a.metrics.ArchivesFailed.Inc()
	}
	if a.db != nil {
		path := filepath.Join(req.OutputDir, req.Name)
		if dbErr := a.db.RecordEntry(history.OpArchive, "FAILED", path, "archive", 0, err.Error()); dbErr != nil {
			a.logger.WithError(dbErr).Error("Failed to record to history database")
		}
	}
	return err
}
