// Package report renders detection results to a human-readable file.
// Pure formatting; all ordering decisions are made upstream.
package report

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/corpustools/dedup/internal/types"
)

// DefaultFilename is written into the input directory after detection.
const DefaultFilename = "dedup_results.txt"

// Summary is everything the report renders.
type Summary struct {
	TotalRecords     int
	Groups           []types.DuplicateGroup // descending occurrence order
	TotalDupeRecords int
	Threshold        float64
	NearDupes        []types.NearDuplicatePair
}

func (s *Summary) duplicateRate() float64 {
	if s.TotalRecords == 0 {
		return 0
	}
	return float64(s.TotalDupeRecords) / float64(s.TotalRecords) * 100
}

// Write renders the summary to path.
func Write(path string, s *Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(w, "Total records: %d\n", s.TotalRecords)
	fmt.Fprintf(w, "Exact duplicate groups: %d\n", len(s.Groups))
	fmt.Fprintf(w, "Records in duplicates: %d\n", s.TotalDupeRecords)
	fmt.Fprintf(w, "Duplicate rate: %.2f%%\n\n", s.duplicateRate())

	fmt.Fprintf(w, "ALL DUPLICATE GROUPS\n%s\n\n", rule)
	for _, g := range s.Groups {
		fmt.Fprintf(w, "Hash: %s (%d occurrences)\n", g.Fingerprint, g.Count)
		for _, loc := range g.Locations {
			fmt.Fprintf(w, "  %s\n", loc)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nNEAR DUPLICATES (%.0f%%+)\n%s\n\n", s.Threshold*100, rule)
	for _, p := range s.NearDupes {
		fmt.Fprintf(w, "Similarity: %.2f%%\n", p.Ratio*100)
		fmt.Fprintf(w, "  A: %s: %s\n", p.A, p.PreviewA)
		fmt.Fprintf(w, "  B: %s: %s\n\n", p.B, p.PreviewB)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
