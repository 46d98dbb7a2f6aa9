package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

var deltaClass string

var deltaCmd = &cobra.Command{
	Use:   "delta [from] [to]",
	Short: "List PRs introduced between two versions",
	Long: `Reports every PR that appears after [from] up to and including [to].
PRs already present at or below [from] are excluded. Versions may be
given in either order.`,
	Args: cobra.ExactArgs(2),
	RunE: runDelta,
}

func init() {
	deltaCmd.Flags().StringVar(&deltaClass, "class", "", "filter by classification (new_feature, issue_fix)")
	rootCmd.AddCommand(deltaCmd)
}

func runDelta(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	report, err := searchService.Delta(context.Background(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("delta failed: %w", err)
	}

	entries := report.Entries
	if deltaClass != "" {
		filtered := make([]domain.DeltaEntry, 0, len(entries))
		for _, e := range entries {
			if string(e.Class) == deltaClass {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	cmd.Printf("PRs between %s and %s: %d\n", report.From.String(), report.To.String(), len(entries))
	if len(report.ByClass) > 0 && deltaClass == "" {
		cmd.Printf("  new features: %d, issue fixes: %d\n",
			report.ByClass[domain.ClassNewFeature], report.ByClass[domain.ClassIssueFix])
	}
	cmd.Println()

	for _, e := range entries {
		marker := " "
		if e.IsNew {
			marker = "*"
		}
		cmd.Printf("  %s %s  %-12s %s (%s)\n", marker, e.PRNumber, classLabel(e.Class), e.Version.String(), e.Filename)
	}
	if len(entries) > 0 {
		cmd.Println()
		cmd.Println("  * first appearance in the corpus")
	}
	return nil
}
