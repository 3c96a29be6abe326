package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corpustools/dedup/internal/config"
	"github.com/corpustools/dedup/internal/pipeline"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect exact and near-duplicate records",
	Long: `Scan the input directory, build the fingerprint index, and report
exact duplicate groups and near-duplicate pairs.

The duplicate list is written to <input>/dedup_results.txt and the
fingerprint index is left on disk for a later 'dedup delete'. Unless
--yes is set, the command prompts to delete the duplicates right away.

Examples:
  dedup detect -i ./data                  # Detect, then prompt to delete
  dedup detect -i ./data --yes            # Detect and auto-delete
  dedup detect -i ./data -s 5000          # Larger near-duplicate sample
  dedup detect -i ./data --threshold 0.9  # Looser similarity cutoff`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		inputDir := resolveInput(cmd)
		indexPath := resolveIndexPath(cmd, inputDir)
		cfg := loadConfig(cmd)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()

		fmt.Printf("%s\n", cyan("=== Duplicate Detection ==="))
		fmt.Printf("Input:     %s\n", inputDir)
		fmt.Printf("Index:     %s\n", indexPath)
		fmt.Printf("Sample:    %d records at %.0f%% similarity\n\n", cfg.SampleSize, cfg.Threshold*100)

		report, err := pipeline.Detect(ctx, pipeline.Options{
			InputDir:  inputDir,
			IndexPath: indexPath,
			Config:    cfg,
			Progressf: func(format string, args ...interface{}) {
				fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: detection failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", yellow("Summary:"))
		fmt.Printf("  Total records:          %d\n", report.TotalRecords)
		fmt.Printf("  Duplicate groups:       %d\n", report.DuplicateGroups)
		fmt.Printf("  Records in duplicates:  %d\n", report.TotalDupeRecords)
		fmt.Printf("  Duplicate rate:         %.2f%%\n", report.DuplicateRate())
		fmt.Printf("  Near-duplicate pairs:   %d\n", len(report.NearDupePairs))
		fmt.Printf("\nResults saved to: %s\n", report.ReportPath)

		if len(report.TopGroups) > 0 {
			fmt.Printf("\n%s\n", yellow("Top duplicate groups (by count):"))
			for _, g := range report.TopGroups {
				fmt.Printf("  %s (%d occurrences)\n", g.Fingerprint, g.Count)
				for i, loc := range g.Locations {
					if i == 3 {
						fmt.Printf("    ... and %d more\n", g.Count-3)
						break
					}
					fmt.Printf("    - %s\n", loc)
				}
			}
		}

		if len(report.NearDupePairs) > 0 {
			fmt.Printf("\n%s\n", yellow("Sample near-duplicates (first 5):"))
			for i, p := range report.NearDupePairs {
				if i == 5 {
					break
				}
				fmt.Printf("  %.2f%%  A: %s: %s...\n          B: %s: %s...\n", p.Ratio*100, p.A, p.PreviewA, p.B, p.PreviewB)
			}
		}

		if report.TotalDupeRecords == 0 {
			fmt.Printf("\n%s No duplicates found. Nothing to delete.\n", green("✓"))
			return
		}

		toDelete := report.RecordsToDelete()
		fmt.Printf("\nRecords to delete (keeping 1 per group): %d\n", toDelete)

		autoYes, _ := cmd.Flags().GetBool("yes")
		if !autoYes {
			confirm := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Delete %d duplicate records?", toDelete),
			}
			if err := survey.AskOne(prompt, &confirm); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !confirm {
				fmt.Printf("\nDeletion cancelled. Run 'dedup delete -i %s' later to apply.\n", inputDir)
				return
			}
		}

		runDeletion(ctx, inputDir, indexPath)
	},
}

// loadConfig builds the run configuration: defaults, then environment,
// then the optional YAML file, then command-line flags, most specific
// last.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = cfg.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if cmd.Flags().Changed("sample") {
		cfg.SampleSize, _ = cmd.Flags().GetInt("sample")
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("pattern") {
		cfg.Pattern, _ = cmd.Flags().GetString("pattern")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func init() {
	detectCmd.Flags().IntP("sample", "s", 2000, "sample size for near-duplicate detection")
	detectCmd.Flags().Float64("threshold", 0.95, "similarity threshold for near-duplicates")
	detectCmd.Flags().Int64("seed", 42, "random seed for the sampler")
	detectCmd.Flags().String("pattern", "*_full.jsonl", "input filename pattern")
	detectCmd.Flags().String("config", "", "YAML config file")
	detectCmd.Flags().BoolP("yes", "y", false, "delete duplicates without prompting")
	rootCmd.AddCommand(detectCmd)
}
