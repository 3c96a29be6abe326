// Package rewrite removes marked lines from files while preserving the
// byte-exact content and relative order of every retained line.
package rewrite

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/corpustools/dedup/internal/types"
)

// Engine rewrites files named in a deletion set. Warnf receives non-fatal
// per-file warnings (missing files); nil discards them.
type Engine struct {
	Warnf func(format string, args ...interface{})
}

func (e *Engine) warnf(format string, args ...interface{}) {
	if e.Warnf != nil {
		e.Warnf(format, args...)
	}
}

// Apply rewrites every file in the deletion set under dir, dropping the
// marked 1-based lines. Each file is written to a temporary sibling and
// renamed into place, so an interrupted run never leaves a torn file:
// files already renamed are final, files not yet reached are untouched.
// A file named in the set but absent on disk produces a warning and is
// skipped. Files not named in the set are never opened.
func (e *Engine) Apply(ctx context.Context, dir string, del types.DeletionSet) (*types.DeletionReport, error) {
	report := &types.DeletionReport{}

	// Deterministic file order, also makes partial runs predictable.
	files := make([]string, 0, len(del))
	for f := range del {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, filename := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			e.warnf("file not found, skipping: %s", path)
			continue
		}
		deleted, kept, err := rewriteFile(path, del[filename])
		if err != nil {
			return report, err
		}
		report.Deleted += deleted
		report.Kept += kept
		report.FilesModified++
	}
	return report, nil
}

// rewriteFile copies path to a temp file, omitting the marked lines, then
// renames the temp file over the original. Retained lines keep their
// original bytes including line terminators; a final line without a
// trailing newline stays that way.
func rewriteFile(path string, drop map[int]bool) (deleted, kept int, err error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".dedup-*")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	reader := bufio.NewReaderSize(src, 1024*1024)
	writer := bufio.NewWriterSize(tmp, 1024*1024)
	lineNum := 0
	for {
		line, readErr := reader.ReadString('\n')
		if len(line) > 0 {
			lineNum++
			if drop[lineNum] {
				deleted++
			} else {
				if _, werr := writer.WriteString(line); werr != nil {
					err = fmt.Errorf("failed to write %s: %w", tmpPath, werr)
					return deleted, kept, err
				}
				kept++
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			err = fmt.Errorf("failed to read %s: %w", path, readErr)
			return deleted, kept, err
		}
	}
	if werr := writer.Flush(); werr != nil {
		err = fmt.Errorf("failed to flush %s: %w", tmpPath, werr)
		return deleted, kept, err
	}
	if cerr := tmp.Close(); cerr != nil {
		err = fmt.Errorf("failed to close %s: %w", tmpPath, cerr)
		return deleted, kept, err
	}
	if cherr := os.Chmod(tmpPath, info.Mode()); cherr != nil {
		err = fmt.Errorf("failed to chmod %s: %w", tmpPath, cherr)
		return deleted, kept, err
	}
	if rerr := os.Rename(tmpPath, path); rerr != nil {
		err = fmt.Errorf("failed to replace %s: %w", path, rerr)
		return deleted, kept, err
	}
	return deleted, kept, nil
}
