package types

import "fmt"

// Location identifies a single record by file and 1-based line number.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// String renders a location in file:L<line> form, matching the report format.
func (l Location) String() string {
	return fmt.Sprintf("%s:L%d", l.File, l.Line)
}

// Less orders locations by (filename, line number). This ordering decides
// which member of a duplicate group is kept, so it must never depend on
// scan or insertion order.
func (l Location) Less(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	return l.Line < other.Line
}

// Record is one valid line extracted from an input file. Records are
// ephemeral: they flow through the scanner and are never persisted whole.
type Record struct {
	Location
	Text string
}

// DuplicateGroup holds all locations sharing one fingerprint.
// Locations are ordered by (filename, line); the first is the keeper.
type DuplicateGroup struct {
	Fingerprint string
	Count       int
	Locations   []Location
}

// Keeper returns the retained representative of the group.
func (g DuplicateGroup) Keeper() Location {
	return g.Locations[0]
}

// NearDuplicatePair reports two sampled records whose similarity ratio
// met the threshold. Previews are truncated for human review.
type NearDuplicatePair struct {
	A        Location
	B        Location
	Ratio    float64
	PreviewA string
	PreviewB string
}

// DeletionSet maps a filename to the set of 1-based line numbers to remove
// from that file.
type DeletionSet map[string]map[int]bool

// Add marks one line of one file for deletion.
func (d DeletionSet) Add(file string, line int) {
	lines, ok := d[file]
	if !ok {
		lines = make(map[int]bool)
		d[file] = lines
	}
	lines[line] = true
}

// Total returns the number of marked lines across all files.
func (d DeletionSet) Total() int {
	n := 0
	for _, lines := range d {
		n += len(lines)
	}
	return n
}

// DetectionReport summarizes one detection run.
type DetectionReport struct {
	TotalRecords     int
	IgnoredLines     int
	DuplicateGroups  int
	TotalDupeRecords int

	// TopGroups holds the largest duplicate groups in descending
	// occurrence order, for summary display. The full list lives in the
	// written report file.
	TopGroups []DuplicateGroup

	NearDupePairs []NearDuplicatePair
	ReportPath    string
	IndexPath     string
}

// RecordsToDelete returns how many records a subsequent deletion pass would
// remove: every duplicate occurrence except one keeper per group.
func (r *DetectionReport) RecordsToDelete() int {
	return r.TotalDupeRecords - r.DuplicateGroups
}

// DuplicateRate returns the fraction of records that belong to a duplicate
// group, as a percentage. Zero when the corpus is empty.
func (r *DetectionReport) DuplicateRate() float64 {
	if r.TotalRecords == 0 {
		return 0
	}
	return float64(r.TotalDupeRecords) / float64(r.TotalRecords) * 100
}

// DeletionReport summarizes one deletion run.
type DeletionReport struct {
	Deleted       int
	Kept          int
	FilesModified int
}
