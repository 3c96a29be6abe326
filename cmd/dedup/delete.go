package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corpustools/dedup/internal/index"
	"github.com/corpustools/dedup/internal/pipeline"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete duplicates marked by a previous detection run",
	Long: `Remove duplicate records found by 'dedup detect', keeping one copy of
each. Requires the fingerprint index left behind by detection.

Line numbers come from the index and reflect file contents at detection
time. If any input file changed since detection, re-run 'dedup detect'
first or the wrong lines may be removed.

Examples:
  dedup delete -i ./data                 # Use <input>/dedup.db
  dedup delete -i ./data -d ./cache/db   # Custom index path`,
	Run: func(cmd *cobra.Command, args []string) {
		inputDir := resolveInput(cmd)
		indexPath := resolveIndexPath(cmd, inputDir)
		runDeletion(context.Background(), inputDir, indexPath)
	},
}

// runDeletion executes the deletion phase and prints its summary. Shared
// by the standalone delete command and the post-detection confirm path.
func runDeletion(ctx context.Context, inputDir, indexPath string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Printf("\n%s\n", yellow("Removing duplicates..."))

	report, err := pipeline.DeleteMarked(ctx, pipeline.Options{
		InputDir:  inputDir,
		IndexPath: indexPath,
		Progressf: func(format string, args ...interface{}) {
			fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
		},
		Warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", fmt.Sprintf(format, args...))
		},
	})
	if err != nil {
		if errors.Is(err, index.ErrMissing) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: deletion failed: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("\n%s Deletion complete\n", green("✓"))
	fmt.Printf("  Records deleted: %d\n", report.Deleted)
	fmt.Printf("  Records kept:    %d\n", report.Kept)
	fmt.Printf("  Files modified:  %d\n", report.FilesModified)
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
