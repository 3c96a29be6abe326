package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/corpustools/dedup/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestApplyRemovesMarkedLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.jsonl", "line one\nline two\nline three\nline four\n")

	del := types.DeletionSet{}
	del.Add("a.jsonl", 2)
	del.Add("a.jsonl", 4)

	engine := &Engine{}
	report, err := engine.Apply(context.Background(), dir, del)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if report.Deleted != 2 || report.Kept != 2 || report.FilesModified != 1 {
		t.Errorf("report = %+v, want 2 deleted / 2 kept / 1 file", report)
	}
	if got := readFile(t, path); got != "line one\nline three\n" {
		t.Errorf("file content = %q", got)
	}
}

func TestApplyPreservesBytesOfRetainedLines(t *testing.T) {
	dir := t.TempDir()
	// Odd spacing and no trailing newline on the last line, all of which
	// must survive untouched.
	content := "  spaced \tline\ndelete me\nfinal without newline"
	path := writeFile(t, dir, "a.jsonl", content)

	del := types.DeletionSet{}
	del.Add("a.jsonl", 2)

	engine := &Engine{}
	report, err := engine.Apply(context.Background(), dir, del)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if report.Deleted != 1 || report.Kept != 2 {
		t.Errorf("report = %+v", report)
	}
	if got := readFile(t, path); got != "  spaced \tline\nfinal without newline" {
		t.Errorf("retained bytes altered: %q", got)
	}
}

func TestApplyLeavesUnlistedFilesAlone(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "touched.jsonl", "a\nb\n")
	untouched := writeFile(t, dir, "untouched.jsonl", "x\ny\n")
	before, err := os.Stat(untouched)
	if err != nil {
		t.Fatal(err)
	}

	del := types.DeletionSet{}
	del.Add("touched.jsonl", 1)

	engine := &Engine{}
	if _, err := engine.Apply(context.Background(), dir, del); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	after, err := os.Stat(untouched)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) || readFile(t, untouched) != "x\ny\n" {
		t.Error("file not named in the deletion set was modified")
	}
}

func TestApplyMissingFileWarnsAndContinues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exists.jsonl", "keep\ndrop\n")

	del := types.DeletionSet{}
	del.Add("vanished.jsonl", 1)
	del.Add("exists.jsonl", 2)

	var warnings []string
	engine := &Engine{
		Warnf: func(format string, args ...interface{}) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	}
	report, err := engine.Apply(context.Background(), dir, del)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if len(warnings) != 1 {
		t.Errorf("expected 1 warning for the vanished file, got %d: %v", len(warnings), warnings)
	}
	if report.FilesModified != 1 || report.Deleted != 1 || report.Kept != 1 {
		t.Errorf("report = %+v", report)
	}
	if got := readFile(t, path); got != "keep\n" {
		t.Errorf("surviving file content = %q", got)
	}
}

func TestApplyEmptySet(t *testing.T) {
	engine := &Engine{}
	report, err := engine.Apply(context.Background(), t.TempDir(), types.DeletionSet{})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if report.Deleted != 0 || report.Kept != 0 || report.FilesModified != 0 {
		t.Errorf("expected zero report for empty set, got %+v", report)
	}
}

func TestApplyNoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", "one\ntwo\n")

	del := types.DeletionSet{}
	del.Add("a.jsonl", 1)

	engine := &Engine{}
	if _, err := engine.Apply(context.Background(), dir, del); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.jsonl" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected directory contents after rewrite: %v", names)
	}
}

func TestApplyLineCountInvariant(t *testing.T) {
	dir := t.TempDir()
	const total = 50
	content := ""
	for i := 1; i <= total; i++ {
		content += fmt.Sprintf("record %d\n", i)
	}
	writeFile(t, dir, "big.jsonl", content)

	del := types.DeletionSet{}
	for _, line := range []int{3, 17, 17, 42, 50} { // duplicate Add is a no-op
		del.Add("big.jsonl", line)
	}

	engine := &Engine{}
	report, err := engine.Apply(context.Background(), dir, del)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if report.Kept != total-report.Deleted {
		t.Errorf("kept %d + deleted %d != original %d", report.Kept, report.Deleted, total)
	}
	if report.Deleted != 4 {
		t.Errorf("expected 4 deletions, got %d", report.Deleted)
	}
}
