package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Detect and remove duplicate records in JSONL corpora",
	Long: `dedup finds exact and near-duplicate records across newline-delimited
JSON files and can remove the duplicates, keeping one copy of each.

Exact duplicates are detected corpus-wide via a persistent fingerprint
index. Near-duplicates are detected over a bounded random sample, so
runtime is controlled by the sample size rather than the corpus size.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("input", "i", "", "directory containing JSONL files (required)")
	rootCmd.PersistentFlags().StringP("db", "d", "", "fingerprint index path (default: <input>/dedup.db)")
	rootCmd.MarkPersistentFlagRequired("input")
}

// resolveInput validates the --input flag and returns it as an absolute
// path. Exits on bad input, matching the other commands' error style.
func resolveInput(cmd *cobra.Command) string {
	input, _ := cmd.Flags().GetString("input")
	abs, err := filepath.Abs(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid input path %q: %v\n", input, err)
		os.Exit(1)
	}
	info, err := os.Stat(abs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: input path does not exist: %s\n", abs)
		os.Exit(1)
	}
	if !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: input path is not a directory: %s\n", abs)
		os.Exit(1)
	}
	return abs
}

// resolveIndexPath returns the --db flag as an absolute path, creating its
// parent directory. Empty means "next to the input files".
func resolveIndexPath(cmd *cobra.Command, inputDir string) string {
	db, _ := cmd.Flags().GetString("db")
	if db == "" {
		return filepath.Join(inputDir, "dedup.db")
	}
	abs, err := filepath.Abs(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid db path %q: %v\n", db, err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create db directory: %v\n", err)
		os.Exit(1)
	}
	return abs
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
