package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var prCmd = &cobra.Command{
	Use:   "pr [number]",
	Short: "Look up a PR across all versions",
	Long: `Finds every release note that mentions the given PR number.
Accepts PR-123456, PR 123456 or a bare number. Results are listed
latest version first, one per document.`,
	Args: cobra.ExactArgs(1),
	RunE: runPR,
}

func init() {
	rootCmd.AddCommand(prCmd)
}

func runPR(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.LookupPR(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("PR not found in any indexed release note.")
		return nil
	}

	cmd.Printf("%s appears in %d document(s):\n\n", results[0].PRNumber, len(results))
	for i := range results {
		r := &results[i]
		cmd.Printf("  %s p.%d (%s)\n", r.Document.Filename, r.PageNum, classLabel(r.Class))
		if r.Snippet != "" {
			cmd.Printf("    %s\n", r.Snippet)
		}
	}
	return nil
}
