package prune

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"dirkeep/internal/fsops"
	"dirkeep/internal/history"
	"dirkeep/internal/metrics"
	"dirkeep/internal/safety"
)

// ErrInvalidParent indicates the parent path is missing or not a
// directory. It is returned before any mutation is attempted.
var ErrInvalidParent = errors.New("invalid parent directory")

// Outcome of a single directory entry
type Outcome string

const (
	OutcomeSkipped Outcome = "SKIPPED"
	OutcomeRemoved Outcome = "REMOVED"
	OutcomeFailed  Outcome = "FAILED"
	OutcomeDryRun  Outcome = "DRY_RUN"
)

// Entry records the outcome for one direct child of the parent
type Entry struct {
	Name    string
	Path    string
	Outcome Outcome
}

// Report aggregates the outcomes of one prune run
type Report struct {
	Parent    string
	Processed int
	Skipped   int
	Removed   int
	Failed    int
	Entries   []Entry
}

// OK reports whether the run finished with zero failures
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Pruner deletes every direct child of a parent directory except the
// entries named in the exclusion list
type Pruner struct {
	logger    *logrus.Logger
	deleter   fsops.Deleter
	validator *safety.Validator
	metrics   *metrics.Metrics
	db        *history.DB
	dryRun    bool
}

// NewPruner creates a new Pruner instance
func NewPruner(logger *logrus.Logger, dryRun bool, db *history.DB) *Pruner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pruner{
		logger:    logger,
		deleter:   fsops.OSDeleter{},
		validator: safety.NewValidator(nil),
		db:        db,
		dryRun:    dryRun,
	}
}

// SetDeleter overrides the filesystem deleter (used by tests)
func (p *Pruner) SetDeleter(d fsops.Deleter) {
	p.deleter = d
}

// SetValidator overrides the prune-root safety validator
func (p *Pruner) SetValidator(v *safety.Validator) {
	p.validator = v
}

// SetMetrics attaches a metrics sink
func (p *Pruner) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Prune removes every direct child of parent whose resolved path is not
// in the exclusion set, including hidden entries.
//
// Exclusion names are whitespace-trimmed and joined to the parent as a
// literal string; the joined path is never canonicalized, so symlinks
// or embedded ".." segments in a name are not specially handled. An
// exclusion naming a nonexistent child is silently inert.
//
// Per-entry removal failures never abort the loop; they are counted in
// the report. An entry counts as removed only when it no longer exists
// after the attempt, regardless of what the removal call reported.
func (p *Pruner) Prune(parent string, exclusions []string) (*Report, error) {
	if p.validator != nil {
		if err := p.validator.ValidatePruneRoot(parent); err != nil {
			return nil, fmt.Errorf("prune root %s: %w", parent, err)
		}
	}

	info, err := os.Stat(parent)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParent, parent)
	}

	parentClean := filepath.Clean(parent)
	keep := buildExclusionSet(parentClean, exclusions)

	children, err := os.ReadDir(parentClean)
	if err != nil {
		return nil, fmt.Errorf("read parent directory: %w", err)
	}

	report := &Report{Parent: parentClean}
	p.logger.WithFields(logrus.Fields{
		"parent":     parentClean,
		"exclusions": len(keep),
		"dry_run":    p.dryRun,
	}).Info("Starting prune")

	for _, child := range children {
		path := filepath.Join(parentClean, child.Name())
		report.Processed++

		if _, ok := keep[path]; ok {
			report.Skipped++
			report.Entries = append(report.Entries, Entry{Name: child.Name(), Path: path, Outcome: OutcomeSkipped})
			p.logger.WithField("path", path).Debug("SKIP excluded entry")
			p.record(string(OutcomeSkipped), path, child, 0)
			if p.metrics != nil {
				p.metrics.EntriesSkipped.Inc()
			}
			continue
		}

		if p.dryRun {
			report.Removed++
			report.Entries = append(report.Entries, Entry{Name: child.Name(), Path: path, Outcome: OutcomeDryRun})
			p.logger.WithField("path", path).Info("[DRY RUN] Would remove entry")
			p.record(string(OutcomeDryRun), path, child, 0)
			continue
		}

		var size int64
		if fi, err := child.Info(); err == nil {
			size = fi.Size()
		}

		// Removal errors are deliberately not inspected: existence
		// after the attempt is the source of truth, since RemoveAll
		// may partially succeed on a subtree.
		_ = p.deleter.RemoveAll(path)

		exists, eerr := p.deleter.Exists(path)
		if eerr != nil || exists {
			report.Failed++
			report.Entries = append(report.Entries, Entry{Name: child.Name(), Path: path, Outcome: OutcomeFailed})
			p.logger.WithField("path", path).Error("Failed to remove entry")
			p.record(string(OutcomeFailed), path, child, size)
			if p.metrics != nil {
				p.metrics.EntriesFailed.Inc()
			}
			continue
		}

		report.Removed++
		report.Entries = append(report.Entries, Entry{Name: child.Name(), Path: path, Outcome: OutcomeRemoved})
		p.logger.WithField("path", path).Debug("Removed entry")
		p.record(string(OutcomeRemoved), path, child, size)
		if p.metrics != nil {
			p.metrics.EntriesRemoved.Inc()
			p.metrics.BytesReclaimed.Add(float64(size))
		}
	}

	p.logger.WithFields(logrus.Fields{
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"removed":   report.Removed,
		"failed":    report.Failed,
	}).Info("Prune complete")

	return report, nil
}

// buildExclusionSet resolves exclusion names to absolute paths under
// parent. Names are trimmed but joined literally, preserving the
// exact-match semantics described on Prune.
func buildExclusionSet(parentClean string, exclusions []string) map[string]struct{} {
	keep := make(map[string]struct{}, len(exclusions))
	for _, name := range exclusions {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		keep[parentClean+string(os.PathSeparator)+name] = struct{}{}
	}
	return keep
}

// record writes one entry outcome to the history database, best effort
func (p *Pruner) record(action, path string, child os.DirEntry, size int64) {
	if p.db == nil {
		return
	}
	objectType := "file"
	if child.IsDir() {
		objectType = "directory"
	}
	if err := p.db.RecordEntry(history.OpPrune, action, path, objectType, size, ""); err != nil {
		p.logger.WithError(err).Error("Failed to record to history database")
	}
}
