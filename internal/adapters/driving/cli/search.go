package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

var (
	searchLimit  int
	searchOffset int
	searchJSON   bool
	searchAnswer bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed release notes",
	Long: `Runs hybrid retrieval across all indexed release notes.
Combines keyword (FTS5), TF-IDF similarity and phrase matching.
Queries may be plain terms, a quoted phrase, a PR number, or a
version range such as "21.2.0 21.4.0 fixes".`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "results to skip, for paging")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchAnswer, "answer", false, "generate a prose answer from the top results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		Limit:  searchLimit,
		Offset: searchOffset,
	}

	if searchAnswer {
		answer, results, err := searchService.Answer(ctx, query, opts)
		if err != nil {
			return fmt.Errorf("answer failed: %w", err)
		}
		cmd.Println(answer)
		cmd.Println()
		return outputSearchTable(cmd, results)
	}

	results, err := searchService.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]

		cmd.Printf("  [%d] %s p.%d (%.2f)\n", i+1, r.Document.Filename, r.PageNum, r.Score)
		if r.PRNumber != "" {
			cmd.Printf("      %s (%s)\n", r.PRNumber, classLabel(r.Class))
		}
		if r.Snippet != "" {
			cmd.Printf("      %s\n", r.Snippet)
		}
		cmd.Println()
	}

	return nil
}

// classLabel renders a classification for display.
func classLabel(c domain.Classification) string {
	switch c {
	case domain.ClassNewFeature:
		return "new feature"
	case domain.ClassIssueFix:
		return "issue fix"
	default:
		return strings.ReplaceAll(string(c), "_", " ")
	}
}
