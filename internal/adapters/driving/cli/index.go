package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexRoot string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index release-note documents",
	Long: `Scans the corpus directory and indexes new or changed documents.
Unchanged files are skipped, removed files are dropped from the index.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexRoot, "dir", "d", "", "corpus directory (default from config)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	root := corpusRoot(indexRoot)
	cmd.Printf("Indexing %s...\n", root)

	report, err := indexService.Run(context.Background(), root)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	indexed, unchanged, failed := report.Counts()
	cmd.Printf("Indexed %d, unchanged %d, failed %d (%.1fs)\n",
		indexed, unchanged, failed,
		report.FinishedAt.Sub(report.StartedAt).Seconds())

	for _, outcome := range report.Outcomes {
		if outcome.Err != "" {
			cmd.Printf("  failed: %s: %s\n", outcome.Filename, outcome.Err)
		}
	}
	return nil
}
