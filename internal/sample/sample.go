// Package sample draws a uniform random sample of records from the corpus
// using single-pass reservoir sampling (Algorithm R). Memory is O(K)
// regardless of corpus size.
package sample

import (
	"context"
	"math/rand"

	"github.com/corpustools/dedup/internal/scan"
	"github.com/corpustools/dedup/internal/types"
)

// Reservoir accumulates up to K records from a stream of unknown length.
// The random source is injected so detection runs are reproducible for a
// fixed seed.
type Reservoir struct {
	k    int
	rng  *rand.Rand
	seen int
	buf  []types.Record
}

// New returns a reservoir of capacity k driven by rng. k = 0 yields an
// always-empty sample.
func New(k int, rng *rand.Rand) *Reservoir {
	size := k
	if size < 0 {
		size = 0
	}
	return &Reservoir{k: k, rng: rng, buf: make([]types.Record, 0, size)}
}

// Observe offers the next record in the stream to the reservoir.
//
// For the i-th record (1-indexed): while the buffer holds fewer than K
// items it is appended; afterwards it replaces slot r-1 with probability
// K/i, where r is uniform in [1, i]. At every point each record seen so
// far is in the buffer with equal probability.
func (r *Reservoir) Observe(rec types.Record) {
	r.seen++
	if r.k <= 0 {
		return
	}
	if len(r.buf) < r.k {
		r.buf = append(r.buf, rec)
		return
	}
	if j := 1 + r.rng.Intn(r.seen); j <= r.k {
		r.buf[j-1] = rec
	}
}

// Records returns the sampled records. If fewer than K records were
// observed the sample is all of them, in stream order.
func (r *Reservoir) Records() []types.Record {
	return r.buf
}

// Seen returns how many records have been observed.
func (r *Reservoir) Seen() int {
	return r.seen
}

// Collect runs a fresh scan over dir and returns a sample of up to k valid
// records. The scan applies exactly the same record filtering as the
// indexing pass.
func Collect(ctx context.Context, dir, pattern string, k int, rng *rand.Rand) ([]types.Record, error) {
	res := New(k, rng)
	_, err := scan.Walk(ctx, dir, pattern, func(rec types.Record) error {
		res.Observe(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res.Records(), nil
}
