// Package scan streams records out of newline-delimited JSON files.
//
// Both the indexing pass and the sampling pass go through Walk, so the
// definition of a "valid record" is identical in both: a non-blank line
// that parses as JSON and carries a non-empty text field. Any divergence
// between the two passes would silently desynchronize duplicate counts
// from sample counts.
package scan

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corpustools/dedup/internal/types"
)

// DefaultPattern matches the corpus export files this tool was built for.
const DefaultPattern = "*_full.jsonl"

// maxLineBytes caps the scanner buffer. Training-data lines run long; 16MB
// covers everything seen in practice.
const maxLineBytes = 16 * 1024 * 1024

// Stats counts what a walk saw.
type Stats struct {
	Files   int // matching files scanned
	Valid   int // records passed to the callback
	Ignored int // lines that failed to parse as JSON
	Empty   int // parsed lines with a missing or empty text field
}

// record is the wire shape of one line. Only the text field is designated
// content; everything else is opaque metadata.
type record struct {
	Text string `json:"text"`
}

// Files returns the matching files under dir in sorted order. Sorting keeps
// scan order, and therefore progress output, deterministic.
func Files(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Walk streams every valid record from files under dir matching pattern,
// invoking fn for each. Blank lines are skipped without counting; lines
// that fail to parse are counted in Stats.Ignored and skipped; records
// with an empty text field are counted in Stats.Empty and skipped. Line
// numbers are 1-based over physical lines. A non-nil error from fn aborts
// the walk, as does context cancellation (checked per line).
func Walk(ctx context.Context, dir, pattern string, fn func(types.Record) error) (Stats, error) {
	var stats Stats

	paths, err := Files(dir, pattern)
	if err != nil {
		return stats, err
	}

	for _, path := range paths {
		if err := walkFile(ctx, path, &stats, fn); err != nil {
			return stats, err
		}
		stats.Files++
	}
	return stats, nil
}

func walkFile(ctx context.Context, path string, stats *Stats, fn func(types.Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	filename := filepath.Base(path)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			stats.Ignored++
			continue
		}
		if rec.Text == "" {
			stats.Empty++
			continue
		}

		stats.Valid++
		if err := fn(types.Record{
			Location: types.Location{File: filename, Line: lineNum},
			Text:     rec.Text,
		}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}
