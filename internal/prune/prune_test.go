package prune

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"dirkeep/internal/fsops"
	"dirkeep/internal/safety"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mustWriteFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// TestPruneKeepsExcludedEntries is the canonical case: parent holds
// a, b, and hidden .c; keeping b removes the other two
func TestPruneKeepsExcludedEntries(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "a"))
	mustWriteFile(t, filepath.Join(parent, "b"))
	mustWriteFile(t, filepath.Join(parent, ".c"))

	pruner := NewPruner(testLogger(), false, nil)
	report, err := pruner.Prune(parent, []string{"b"})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if report.Removed != 2 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("got removed=%d skipped=%d failed=%d, want 2/1/0",
			report.Removed, report.Skipped, report.Failed)
	}
	if !report.OK() {
		t.Error("report should be OK with zero failures")
	}

	names := listNames(t, parent)
	if len(names) != 1 || names[0] != "b" {
		t.Errorf("surviving entries = %v, want [b]", names)
	}
}

// TestPruneEmptyExclusionsRemovesAll proves files, directories, and
// hidden entries are all removed when nothing is kept
func TestPruneEmptyExclusionsRemovesAll(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "file.txt"))
	mustWriteFile(t, filepath.Join(parent, ".hidden"))
	sub := filepath.Join(parent, "subdir")
	if err := os.MkdirAll(filepath.Join(sub, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWriteFile(t, filepath.Join(sub, "nested", "deep.txt"))

	pruner := NewPruner(testLogger(), false, nil)
	report, err := pruner.Prune(parent, nil)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if report.Processed != 3 || report.Removed != 3 || report.Failed != 0 {
		t.Errorf("got processed=%d removed=%d failed=%d, want 3/3/0",
			report.Processed, report.Removed, report.Failed)
	}
	if names := listNames(t, parent); len(names) != 0 {
		t.Errorf("parent should be empty, has %v", names)
	}
}

// TestPruneIdempotent runs the same prune twice: the second run must
// remove nothing new and still report success
func TestPruneIdempotent(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "a"))
	mustWriteFile(t, filepath.Join(parent, "b"))

	pruner := NewPruner(testLogger(), false, nil)
	if _, err := pruner.Prune(parent, []string{"b"}); err != nil {
		t.Fatalf("first Prune failed: %v", err)
	}

	report, err := pruner.Prune(parent, []string{"b"})
	if err != nil {
		t.Fatalf("second Prune failed: %v", err)
	}
	if report.Removed != 0 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("second run got removed=%d skipped=%d failed=%d, want 0/1/0",
			report.Removed, report.Skipped, report.Failed)
	}
	if !report.OK() {
		t.Error("second run should report success")
	}
}

// TestPruneMissingParent must fail before any mutation
func TestPruneMissingParent(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "does-not-exist")

	pruner := NewPruner(testLogger(), false, nil)
	_, err := pruner.Prune(parent, nil)
	if !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("got err=%v, want ErrInvalidParent", err)
	}
}

// TestPruneParentIsFile rejects a regular file as parent
func TestPruneParentIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	mustWriteFile(t, file)

	pruner := NewPruner(testLogger(), false, nil)
	if _, err := pruner.Prune(file, nil); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("got err=%v, want ErrInvalidParent", err)
	}
}

// TestPruneNonexistentExclusionInert proves that excluding an absent
// child (like .git) changes nothing versus omitting it
func TestPruneNonexistentExclusionInert(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "a"))

	pruner := NewPruner(testLogger(), false, nil)
	report, err := pruner.Prune(parent, []string{".git"})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if report.Processed != 1 || report.Removed != 1 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("got processed=%d removed=%d skipped=%d failed=%d, want 1/1/0/0",
			report.Processed, report.Removed, report.Skipped, report.Failed)
	}
}

// TestPruneTrimsExclusionNames: exclusion names arrive whitespace-padded
// from comma-delimited input and must still match
func TestPruneTrimsExclusionNames(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "a"))
	mustWriteFile(t, filepath.Join(parent, "b"))

	pruner := NewPruner(testLogger(), false, nil)
	report, err := pruner.Prune(parent, []string{"  b  ", ""})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if report.Skipped != 1 || report.Removed != 1 {
		t.Errorf("got skipped=%d removed=%d, want 1/1", report.Skipped, report.Removed)
	}
	if names := listNames(t, parent); len(names) != 1 || names[0] != "b" {
		t.Errorf("surviving entries = %v, want [b]", names)
	}
}

// TestPruneExclusionPathsNotCanonicalized: an exclusion with an
// embedded ".." segment is matched literally, so it protects nothing.
// This preserves the documented exact-join semantics.
func TestPruneExclusionPathsNotCanonicalized(t *testing.T) {
	parent := t.TempDir()
	if err := os.Mkdir(filepath.Join(parent, "x"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWriteFile(t, filepath.Join(parent, "b"))

	pruner := NewPruner(testLogger(), false, nil)
	report, err := pruner.Prune(parent, []string{"x/../b"})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	// "x/../b" never matches the enumerated child "b"
	if report.Skipped != 0 || report.Removed != 2 {
		t.Errorf("got skipped=%d removed=%d, want 0/2", report.Skipped, report.Removed)
	}
	if names := listNames(t, parent); len(names) != 0 {
		t.Errorf("parent should be empty, has %v", names)
	}
}

// TestPruneEmptyParent yields zero processed entries and success
func TestPruneEmptyParent(t *testing.T) {
	parent := t.TempDir()

	pruner := NewPruner(testLogger(), false, nil)
	report, err := pruner.Prune(parent, []string{"whatever"})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if report.Processed != 0 || !report.OK() {
		t.Errorf("got processed=%d ok=%v, want 0/true", report.Processed, report.OK())
	}
}

// TestDryRunNeverDeletes proves the dry-run contract:
// When dryRun=true, ZERO delete syscalls must occur
func TestDryRunNeverDeletes(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "a"))
	mustWriteFile(t, filepath.Join(parent, "b"))

	fakeDeleter := &fsops.FakeDeleter{}

	pruner := NewPruner(testLogger(), true, nil) // dryRun=true
	pruner.SetDeleter(fakeDeleter)

	report, err := pruner.Prune(parent, []string{"b"})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	// DRY-RUN CONTRACT: Assert ZERO delete calls occurred
	if len(fakeDeleter.Calls) != 0 {
		t.Errorf("DRY-RUN VIOLATION: Expected 0 delete calls, got %d: %v",
			len(fakeDeleter.Calls), fakeDeleter.Calls)
	}
	if report.Removed != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("got removed=%d skipped=%d failed=%d, want 1/1/0",
			report.Removed, report.Skipped, report.Failed)
	}
	if names := listNames(t, parent); len(names) != 2 {
		t.Errorf("dry run mutated the filesystem: %v", names)
	}
}

// TestPruneFailureIsolation: one surviving entry is counted as failed
// without aborting processing of its siblings
func TestPruneFailureIsolation(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "aaa"))
	mustWriteFile(t, filepath.Join(parent, "bbb"))
	mustWriteFile(t, filepath.Join(parent, "ccc"))

	// aaa sorts first, so its failure must not stop bbb and ccc
	fakeDeleter := &fsops.FakeDeleter{
		Surviving: map[string]bool{filepath.Join(parent, "aaa"): true},
	}

	pruner := NewPruner(testLogger(), false, nil)
	pruner.SetDeleter(fakeDeleter)

	report, err := pruner.Prune(parent, nil)
	if err != nil {
		t.Fatalf("Prune must not propagate per-entry failures: %v", err)
	}

	if report.Failed != 1 || report.Removed != 2 {
		t.Errorf("got failed=%d removed=%d, want 1/2", report.Failed, report.Removed)
	}
	if report.OK() {
		t.Error("report.OK() must be false with failures")
	}
	if len(fakeDeleter.Calls) != 3 {
		t.Errorf("expected removal attempts on all 3 entries, got %v", fakeDeleter.Calls)
	}
}

// TestPruneProtectedParent: the safety validator blocks the run before
// any mutation
func TestPruneProtectedParent(t *testing.T) {
	parent := t.TempDir()
	mustWriteFile(t, filepath.Join(parent, "a"))

	pruner := NewPruner(testLogger(), false, nil)
	pruner.SetValidator(safety.NewValidator([]string{parent}))

	_, err := pruner.Prune(parent, nil)
	if !errors.Is(err, safety.ErrProtectedPath) {
		t.Fatalf("got err=%v, want ErrProtectedPath", err)
	}
	if names := listNames(t, parent); len(names) != 1 {
		t.Errorf("protected parent was mutated: %v", names)
	}
}

func TestBuildExclusionSet(t *testing.T) {
	keep := buildExclusionSet("/data", []string{" b ", "", ".git", "b"})
	if len(keep) != 2 {
		t.Fatalf("got %d entries, want 2 (duplicates and blanks collapse)", len(keep))
	}
	if _, ok := keep["/data/b"]; !ok {
		t.Error("missing /data/b")
	}
	if _, ok := keep["/data/.git"]; !ok {
		t.Error("missing /data/.git")
	}
}
