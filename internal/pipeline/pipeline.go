// Package pipeline sequences the detection and deletion phases.
//
// Detection runs ingest -> index-build -> resolve -> sample -> match ->
// report, strictly one phase at a time; the only state crossing a phase
// boundary is the persistent index and the in-memory results. Deletion is
// a separate, later invocation that re-derives the deletion set from the
// same index.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/corpustools/dedup/internal/config"
	"github.com/corpustools/dedup/internal/fingerprint"
	"github.com/corpustools/dedup/internal/index"
	"github.com/corpustools/dedup/internal/match"
	"github.com/corpustools/dedup/internal/report"
	"github.com/corpustools/dedup/internal/resolve"
	"github.com/corpustools/dedup/internal/rewrite"
	"github.com/corpustools/dedup/internal/sample"
	"github.com/corpustools/dedup/internal/scan"
	"github.com/corpustools/dedup/internal/types"
)

// Options names the inputs of one run. Progressf and Warnf receive phase
// progress and non-fatal warnings; nil discards them. Library code never
// prints on its own.
type Options struct {
	InputDir  string
	IndexPath string
	Config    config.Config
	Progressf func(format string, args ...interface{})
	Warnf     func(format string, args ...interface{})
}

func (o Options) progressf(format string, args ...interface{}) {
	if o.Progressf != nil {
		o.Progressf(format, args...)
	}
}

// topGroupCount bounds how many duplicate groups the detection report
// carries for summary display.
const topGroupCount = 5

// DefaultIndexPath returns where the index lives when the caller does not
// supply a path.
func DefaultIndexPath(inputDir string) string {
	return filepath.Join(inputDir, "dedup.db")
}

// Detect runs the full detection pipeline over opts.InputDir and writes a
// human-readable report into it. Any existing index at opts.IndexPath is
// discarded and rebuilt; the index left behind is what a later
// DeleteMarked call consumes. Storage failure at any point aborts the run.
func Detect(ctx context.Context, opts Options) (*types.DetectionReport, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	indexPath := opts.IndexPath
	if indexPath == "" {
		indexPath = DefaultIndexPath(opts.InputDir)
	}

	ix, err := index.Create(indexPath)
	if err != nil {
		return nil, err
	}
	defer ix.Close()

	// Phase 1: ingest. Stream records, fingerprint, bulk-insert.
	writer := index.NewWriter(ix, cfg.BatchSize)
	stats, err := scan.Walk(ctx, opts.InputDir, cfg.Pattern, func(rec types.Record) error {
		return writer.Add(ctx, index.Entry{
			Fingerprint: fingerprint.Sum(rec.Text),
			File:        rec.File,
			Line:        rec.Line,
		})
	})
	if err != nil {
		return nil, err
	}
	if err := writer.Flush(ctx); err != nil {
		return nil, err
	}
	opts.progressf("indexed %d records from %d files (%d unparseable lines ignored)",
		stats.Valid, stats.Files, stats.Ignored)

	// Phase 2: build the fingerprint lookup.
	if err := ix.BuildLookup(ctx); err != nil {
		return nil, err
	}

	// Phase 3: resolve exact duplicates.
	res, err := resolve.Resolve(ctx, ix)
	if err != nil {
		return nil, err
	}
	opts.progressf("found %d duplicate groups covering %d records", res.GroupCount, res.DupeRecords)

	// Phase 4: re-scan for the near-duplicate sample. Same walk, same
	// filtering, fresh seeded source.
	rng := rand.New(rand.NewSource(cfg.Seed))
	sampled, err := sample.Collect(ctx, opts.InputDir, cfg.Pattern, cfg.SampleSize, rng)
	if err != nil {
		return nil, err
	}
	opts.progressf("sampled %d of %d records for near-duplicate comparison", len(sampled), stats.Valid)

	// Phase 5: pairwise matching over the sample.
	matcher := &match.Matcher{
		Threshold:  cfg.Threshold,
		PreviewLen: cfg.PreviewLen,
		Workers:    cfg.Workers,
	}
	pairs, err := matcher.Pairs(ctx, sampled)
	if err != nil {
		return nil, err
	}
	opts.progressf("found %d near-duplicate pairs at %.0f%%+", len(pairs), cfg.Threshold*100)

	// Phase 6: report.
	reportPath := filepath.Join(opts.InputDir, report.DefaultFilename)
	if err := report.Write(reportPath, &report.Summary{
		TotalRecords:     stats.Valid,
		Groups:           res.Groups,
		TotalDupeRecords: res.DupeRecords,
		Threshold:        cfg.Threshold,
		NearDupes:        pairs,
	}); err != nil {
		return nil, err
	}

	topGroups := res.Groups
	if len(topGroups) > topGroupCount {
		topGroups = topGroups[:topGroupCount]
	}

	return &types.DetectionReport{
		TotalRecords:     stats.Valid,
		IgnoredLines:     stats.Ignored,
		DuplicateGroups:  res.GroupCount,
		TotalDupeRecords: res.DupeRecords,
		TopGroups:        topGroups,
		NearDupePairs:    pairs,
		ReportPath:       reportPath,
		IndexPath:        indexPath,
	}, nil
}

// DeleteMarked removes every duplicate record marked by the most recent
// detection run, keeping one representative per group. Fails with
// index.ErrMissing before touching any file if no index exists at
// opts.IndexPath.
//
// Line numbers come from the index and reflect file contents at detection
// time. If files changed since, deletion can remove the wrong lines;
// callers must re-run detection after any modification.
func DeleteMarked(ctx context.Context, opts Options) (*types.DeletionReport, error) {
	indexPath := opts.IndexPath
	if indexPath == "" {
		indexPath = DefaultIndexPath(opts.InputDir)
	}

	ix, err := index.Open(indexPath)
	if err != nil {
		return nil, err
	}
	defer ix.Close()

	res, err := resolve.Resolve(ctx, ix)
	if err != nil {
		return nil, fmt.Errorf("failed to derive deletion set: %w", err)
	}
	opts.progressf("%d duplicate groups, %d records marked for deletion across %d files",
		res.GroupCount, res.Deletions.Total(), len(res.Deletions))

	if len(res.Deletions) == 0 {
		return &types.DeletionReport{}, nil
	}

	engine := &rewrite.Engine{Warnf: opts.Warnf}
	return engine.Apply(ctx, opts.InputDir, res.Deletions)
}
