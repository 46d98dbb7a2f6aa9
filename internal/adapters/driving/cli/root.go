// Package cli provides the command-line interface for prsearch.
package cli

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/relnote-labs/prsearch/internal/adapters/driven/config/file"
	"github.com/relnote-labs/prsearch/internal/adapters/driven/corpus/filesystem"
	"github.com/relnote-labs/prsearch/internal/adapters/driven/extract"
	"github.com/relnote-labs/prsearch/internal/adapters/driven/llm/ollama"
	"github.com/relnote-labs/prsearch/internal/adapters/driven/storage/sqlite"
	"github.com/relnote-labs/prsearch/internal/adapters/driven/vector/tfidf"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
	"github.com/relnote-labs/prsearch/internal/core/ports/driving"
	"github.com/relnote-labs/prsearch/internal/core/services"
	"github.com/relnote-labs/prsearch/internal/logger"
	"github.com/relnote-labs/prsearch/internal/query"
)

// version is set at build time via ldflags.
var version = "dev"

// Wired services, shared by the command implementations.
var (
	configStore   driven.ConfigStore
	store         *sqlite.Store
	vectorIndex   driven.VectorIndex
	searchService driving.Searcher
	indexService  driving.Indexer
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "prsearch",
	Short: "Index and search software release notes",
	Long: `prsearch indexes release-note documents and answers queries about
PR numbers, fixes and features across product versions. Retrieval is
hybrid: SQLite FTS5 keyword search fused with TF-IDF similarity and
phrase matching.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string displayed by the version command.
func SetVersion(v string) {
	version = v
}

// initServices wires the adapters and core services. Idempotent so
// tests can pre-populate the package vars.
func initServices() error {
	if searchService != nil {
		return nil
	}

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	configStore = cfg

	store, err = sqlite.NewStore(cfg.GetString("storage.dir"))
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}

	vectorIndex = tfidf.NewIndex()
	if err := warmVectorIndex(); err != nil {
		logger.Warn("Vector index warm-up failed: %v", err)
	}

	var generator driven.AnswerGenerator
	if cfg.GetBool("answer.enabled") {
		generator = ollama.NewGenerator(ollama.Config{
			BaseURL: cfg.GetString("answer.base_url"),
			Model:   cfg.GetString("answer.model"),
		})
	}

	searchService = services.NewSearchService(
		store.IndexStore(),
		store.LexicalEngine(),
		vectorIndex,
		generator,
		newNormalizer(cfg),
		searchConfig(cfg),
	)

	indexer := services.NewIndexerService(
		store.IndexStore(),
		extract.NewDispatcher(),
		filesystem.NewLister(),
		vectorIndex,
	)
	indexer.SetWorkers(cfg.GetInt("index.workers"))
	indexService = indexer

	return nil
}

// warmVectorIndex rebuilds the in-memory TF-IDF index from the
// persisted pages so searches work without a fresh indexing run.
func warmVectorIndex() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pages, err := store.IndexStore().ListPages(ctx)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return nil
	}
	return vectorIndex.Rebuild(ctx, pages)
}

// newNormalizer builds the query normaliser, layering configured
// correction, stopword and synonym rules over the defaults.
func newNormalizer(cfg driven.ConfigStore) *query.Normalizer {
	var opts []query.Option

	if rules := cfg.GetStringMap("query.corrections"); len(rules) > 0 {
		corrections := make([]query.Correction, 0, len(rules))
		for pattern, replace := range rules {
			re, err := regexp.Compile(pattern)
			if err != nil {
				logger.Warn("Skipping invalid correction pattern %q: %v", pattern, err)
				continue
			}
			corrections = append(corrections, query.Correction{Pattern: re, Replace: replace})
		}
		opts = append(opts, query.WithCorrections(corrections))
	}
	if words := cfg.GetStringSlice("query.stopwords"); len(words) > 0 {
		opts = append(opts, query.WithStopwords(words))
	}
	if synonyms := cfg.GetStringSliceMap("query.synonyms"); len(synonyms) > 0 {
		opts = append(opts, query.WithSynonyms(synonyms))
	}
	if max := cfg.GetInt("query.max_expansions"); max > 0 {
		opts = append(opts, query.WithMaxExpansions(max))
	}

	return query.NewNormalizer(opts...)
}

// searchConfig reads fusion weights from config, falling back to the
// defaults for anything unset.
func searchConfig(cfg driven.ConfigStore) services.SearchConfig {
	sc := services.DefaultSearchConfig()
	if w := cfg.GetFloat64("search.lexical_weight"); w > 0 {
		sc.LexicalWeight = w
	}
	if w := cfg.GetFloat64("search.vector_weight"); w > 0 {
		sc.VectorWeight = w
	}
	if w := cfg.GetFloat64("search.phrase_weight"); w > 0 {
		sc.PhraseWeight = w
	}
	if n := cfg.GetInt("search.min_lexical_results"); n > 0 {
		sc.MinLexicalResults = n
	}
	if s := cfg.GetInt("search.timeout_seconds"); s > 0 {
		sc.Timeout = time.Duration(s) * time.Second
	}
	return sc
}

// corpusRoot resolves the corpus directory: explicit flag first, then
// config, then the current directory.
func corpusRoot(flag string) string {
	if flag != "" {
		return flag
	}
	if configStore != nil {
		if root := configStore.GetString("corpus.root"); root != "" {
			return root
		}
	}
	return "."
}
