package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relnote-labs/prsearch/internal/adapters/driven/corpus/filesystem"
	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/logger"
)

var watchRoot string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the corpus and re-index on changes",
	Long: `Runs an initial indexing pass, then watches the corpus directory
and re-indexes whenever release notes are added, changed or removed.
Stops on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchRoot, "dir", "d", "", "corpus directory (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	root := corpusRoot(watchRoot)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reindex(ctx, cmd, root); err != nil {
		return err
	}

	events, err := filesystem.NewWatcher().Watch(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	cmd.Printf("Watching %s for changes (Ctrl-C to stop)...\n", root)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debug("Corpus change: %s", ev.Path)
			if err := reindex(ctx, cmd, root); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				cmd.Printf("Re-index failed: %v\n", err)
			}
		}
	}
}

// reindex runs one indexing pass and prints a one-line summary.
// A run already in progress is not an error; the watcher just tries
// again on the next event.
func reindex(ctx context.Context, cmd *cobra.Command, root string) error {
	report, err := indexService.Run(ctx, root)
	if err != nil {
		if errors.Is(err, domain.ErrIndexInProgress) {
			logger.Debug("Skipping re-index: run already in progress")
			return nil
		}
		return err
	}
	indexed, unchanged, failed := report.Counts()
	cmd.Printf("Indexed %d, unchanged %d, failed %d\n", indexed, unchanged, failed)
	return nil
}
