package match

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpustools/dedup/internal/types"
)

func rec(file string, line int, text string) types.Record {
	return types.Record{
		Location: types.Location{File: file, Line: line},
		Text:     text,
	}
}

func TestPairsFindsNearDuplicates(t *testing.T) {
	records := []types.Record{
		rec("a.jsonl", 1, "the quick brown fox jumps over the lazy dog"),
		rec("a.jsonl", 2, "the quick brown fox jumps over the lazy dot"),
		rec("b.jsonl", 5, "completely unrelated text about something else"),
	}

	m := New(0.95)
	pairs, err := m.Pairs(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, types.Location{File: "a.jsonl", Line: 1}, p.A)
	assert.Equal(t, types.Location{File: "a.jsonl", Line: 2}, p.B)
	assert.GreaterOrEqual(t, p.Ratio, 0.95)
}

func TestPairsEmptyAndSingleSample(t *testing.T) {
	m := New(0.95)

	pairs, err := m.Pairs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	pairs, err = m.Pairs(context.Background(), []types.Record{rec("a", 1, "only one")})
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestPairsThresholdBoundary(t *testing.T) {
	// Identical texts at different locations have ratio exactly 1.0 and
	// must always be accepted.
	records := []types.Record{
		rec("a.jsonl", 1, "same text"),
		rec("a.jsonl", 9, "same text"),
	}
	m := New(1.0)
	pairs, err := m.Pairs(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 1.0, pairs[0].Ratio)
}

func TestPairsRejectsBelowThreshold(t *testing.T) {
	records := []types.Record{
		rec("a.jsonl", 1, "abcdefghij"),
		rec("a.jsonl", 2, "abcdexghij"), // ratio 0.9
	}
	m := New(0.95)
	pairs, err := m.Pairs(context.Background(), records)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestPairsLengthPruneIsSound(t *testing.T) {
	// Lengths 100 and 94: the old min/max pre-filter (0.94 < 0.95) would
	// prune this pair, but the exact ratio is 2*94/194 ≈ 0.969. The
	// length bound must let it through.
	long := strings.Repeat("x", 100)
	short := strings.Repeat("x", 94)
	records := []types.Record{
		rec("a.jsonl", 1, long),
		rec("a.jsonl", 2, short),
	}
	m := New(0.95)
	pairs, err := m.Pairs(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, pairs, 1, "sound length bound must not prune a pair the exact scorer accepts")
	assert.InDelta(t, 2.0*94/194, pairs[0].Ratio, 1e-9)
}

func TestPairsDeterministicOrder(t *testing.T) {
	records := []types.Record{
		rec("a.jsonl", 1, "aaaa bbbb cccc dddd"),
		rec("a.jsonl", 2, "aaaa bbbb cccc dddd"),
		rec("b.jsonl", 3, "aaaa bbbb cccc dddd"),
		rec("b.jsonl", 4, "zzzz yyyy xxxx wwww"),
	}
	m := &Matcher{Threshold: 0.95, Workers: 4}

	first, err := m.Pairs(context.Background(), records)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := m.Pairs(context.Background(), records)
		require.NoError(t, err)
		assert.Equal(t, first, again, "pair order must not depend on worker scheduling")
	}
}

func TestPairsPreviewTruncation(t *testing.T) {
	text := strings.Repeat("a", 150)
	records := []types.Record{
		rec("a.jsonl", 1, text),
		rec("a.jsonl", 2, text),
	}
	m := New(0.95)
	pairs, err := m.Pairs(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Len(t, pairs[0].PreviewA, DefaultPreviewLen)
	assert.Len(t, pairs[0].PreviewB, DefaultPreviewLen)
}

func TestPairsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []types.Record{
		rec("a.jsonl", 1, "some text here"),
		rec("a.jsonl", 2, "some text here"),
		rec("a.jsonl", 3, "some text here"),
	}
	m := New(0.95)
	_, err := m.Pairs(ctx, records)
	assert.ErrorIs(t, err, context.Canceled)
}
