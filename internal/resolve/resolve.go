// Package resolve turns the populated fingerprint index into duplicate
// groups and a deletion set.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/corpustools/dedup/internal/index"
	"github.com/corpustools/dedup/internal/types"
)

// Result holds everything derived from the duplicate groups of one index.
type Result struct {
	// Groups in descending occurrence order. Each group's locations are
	// sorted by (filename, line); the first location is the keeper.
	Groups []types.DuplicateGroup

	// GroupCount is the number of fingerprints with 2+ occurrences.
	GroupCount int

	// DupeRecords is the total occurrences across all groups, keepers
	// included.
	DupeRecords int

	// Deletions marks every group member except its keeper.
	Deletions types.DeletionSet
}

// Resolve reads every duplicate group (count >= 2) from ix and picks the
// keeper for each. The keeper is always the location that sorts first by
// (filename, line number); the sort here is explicit rather than trusting
// the index query order, so keeper choice can never drift with storage
// internals.
func Resolve(ctx context.Context, ix *index.Index) (*Result, error) {
	groups, err := ix.GroupsWithCount(ctx, 2)
	if err != nil {
		return nil, err
	}

	res := &Result{Deletions: make(types.DeletionSet)}
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		locs, err := ix.LocationsFor(ctx, g.Fingerprint)
		if err != nil {
			return nil, err
		}
		if len(locs) != g.Count {
			return nil, fmt.Errorf("index inconsistency: fingerprint %s has %d locations, expected %d",
				g.Fingerprint, len(locs), g.Count)
		}
		sort.Slice(locs, func(i, j int) bool { return locs[i].Less(locs[j]) })

		res.Groups = append(res.Groups, types.DuplicateGroup{
			Fingerprint: g.Fingerprint,
			Count:       g.Count,
			Locations:   locs,
		})
		res.GroupCount++
		res.DupeRecords += g.Count
		for _, loc := range locs[1:] {
			res.Deletions.Add(loc.File, loc.Line)
		}
	}
	return res, nil
}
