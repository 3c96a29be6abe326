// Package index implements the persistent fingerprint index backing
// exact-duplicate detection.
//
// The index is a SQLite multimap from fingerprint to (filename, line)
// locations. It is rebuilt from scratch on every detection run and is fully
// regenerable from the source files, so it is opened with durability traded
// away for bulk-write speed. Single-writer, single-reader within one process
// lifetime; it is not safe for concurrent mutation from multiple processes.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corpustools/dedup/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

// ErrMissing is returned by Open when no index exists at the given path.
// Deletion requires a prior detection run to have built the index.
var ErrMissing = errors.New("fingerprint index not found")

const schema = `
CREATE TABLE IF NOT EXISTS records (
	hash     TEXT,
	filename TEXT,
	line_num INTEGER
)`

// Entry is one persisted index row.
type Entry struct {
	Fingerprint string
	File        string
	Line        int
}

// Index is a SQLite-backed fingerprint index.
type Index struct {
	db   *sql.DB
	path string
}

// Create discards any existing index at path and opens a fresh one tuned
// for bulk inserts. The pragmas disable journaling and synchronous writes:
// the index holds no authoritative data, so losing it on a crash only costs
// a re-run of detection.
func Create(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove old index: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = OFF",
		"PRAGMA synchronous = OFF",
		"PRAGMA cache_size = 1000000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Index{db: db, path: path}, nil
}

// Open opens an existing index for the deletion phase. Returns ErrMissing
// if no index file exists at path; nothing is created.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (run detection first)", ErrMissing, path)
		}
		return nil, fmt.Errorf("failed to stat index: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping index database: %w", err)
	}
	return &Index{db: db, path: path}, nil
}

// Path returns the on-disk location of the index.
func (ix *Index) Path() string {
	return ix.path
}

// InsertBatch appends a batch of entries inside a single transaction.
func (ix *Index) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (hash, filename, line_num) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Fingerprint, e.File, e.Line); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// BuildLookup creates the secondary index on the fingerprint column. Called
// once after ingestion; group-by queries are unusably slow without it.
func (ix *Index) BuildLookup(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_hash ON records(hash)"); err != nil {
		return fmt.Errorf("failed to build fingerprint lookup: %w", err)
	}
	return nil
}

// Group is one fingerprint with its occurrence count.
type Group struct {
	Fingerprint string
	Count       int
}

// GroupsWithCount returns all fingerprints occurring at least minCount
// times, ordered by descending count. Fingerprint is the tie-break so the
// ordering is stable across runs.
func (ix *Index) GroupsWithCount(ctx context.Context, minCount int) ([]Group, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT hash, COUNT(*) as cnt
		FROM records
		GROUP BY hash
		HAVING cnt >= ?
		ORDER BY cnt DESC, hash ASC
	`, minCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.Fingerprint, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read groups: %w", err)
	}
	return groups, nil
}

// LocationsFor returns every location recorded for a fingerprint, ordered
// by (filename, line number).
func (ix *Index) LocationsFor(ctx context.Context, fingerprint string) ([]types.Location, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT filename, line_num
		FROM records
		WHERE hash = ?
		ORDER BY filename, line_num
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locs []types.Location
	for rows.Next() {
		var loc types.Location
		if err := rows.Scan(&loc.File, &loc.Line); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read locations: %w", err)
	}
	return locs, nil
}

// CountRecords returns the total number of indexed entries.
func (ix *Index) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
