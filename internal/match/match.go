// Package match finds near-duplicate pairs within a sampled set of records.
//
// Every unordered pair is scored with a cheap-to-expensive cascade: a
// length bound, then a rune-frequency bound, then the exact ratio. Both
// bounds are provable upper bounds of the exact ratio, so a pair pruned on
// a bound could never have been accepted by the exact scorer. Cost is
// O(K²) in the sample size K, which is the single knob controlling
// runtime; the corpus size does not enter.
package match

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/corpustools/dedup/internal/types"
)

// DefaultThreshold is the minimum similarity ratio for a near-duplicate.
const DefaultThreshold = 0.95

// DefaultPreviewLen is how many runes of each text the report shows.
const DefaultPreviewLen = 100

// Matcher scores sampled records pairwise.
type Matcher struct {
	// Threshold is the minimum exact ratio to accept, in (0, 1].
	Threshold float64

	// PreviewLen truncates pair previews. <= 0 selects DefaultPreviewLen.
	PreviewLen int

	// Workers bounds the comparison pool. <= 0 selects GOMAXPROCS.
	Workers int
}

// New returns a Matcher with the given threshold and default preview and
// worker settings.
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// Pairs returns every pair of distinct sampled records whose similarity
// ratio meets the threshold, ordered by descending ratio (location order
// as tie-break) so output is reproducible regardless of worker scheduling.
// Each worker owns a stripe of row indices; pair evaluations are
// independent and side-effect-free.
func (m *Matcher) Pairs(ctx context.Context, records []types.Record) ([]types.NearDuplicatePair, error) {
	n := len(records)
	if n < 2 {
		return nil, nil
	}

	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	previewLen := m.PreviewLen
	if previewLen <= 0 {
		previewLen = DefaultPreviewLen
	}

	var mu sync.Mutex
	var pairs []types.NearDuplicatePair

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n-1; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var found []types.NearDuplicatePair
			a := records[i]
			for j := i + 1; j < n; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				b := records[j]
				if LengthBound(a.Text, b.Text) < m.Threshold {
					continue
				}
				if QuickRatio(a.Text, b.Text) < m.Threshold {
					continue
				}
				ratio := Ratio(a.Text, b.Text)
				if ratio < m.Threshold {
					continue
				}
				found = append(found, types.NearDuplicatePair{
					A:        a.Location,
					B:        b.Location,
					Ratio:    ratio,
					PreviewA: preview(a.Text, previewLen),
					PreviewB: preview(b.Text, previewLen),
				})
			}
			if len(found) > 0 {
				mu.Lock()
				pairs = append(pairs, found...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Ratio != pairs[j].Ratio {
			return pairs[i].Ratio > pairs[j].Ratio
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A.Less(pairs[j].A)
		}
		return pairs[i].B.Less(pairs[j].B)
	})
	return pairs, nil
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
