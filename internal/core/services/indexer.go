package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
	"github.com/relnote-labs/prsearch/internal/core/ports/driving"
	"github.com/relnote-labs/prsearch/internal/logger"
	"github.com/relnote-labs/prsearch/internal/prscan"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// defaultWorkers bounds parallel text extraction within one run.
const defaultWorkers = 4

// extracted carries one file's extraction result from the worker pool
// to the serialised store-write phase.
type extracted struct {
	file  driven.CorpusFile
	pages []string
	err   error
}

// IndexerService runs idempotent incremental indexing over a corpus
// directory. Extraction fans out across workers; store writes stay
// serialised, one transaction per document. Only one run may be active
// at a time; readers are never blocked.
type IndexerService struct {
	store     driven.IndexStore
	extractor driven.TextExtractor
	lister    driven.CorpusLister
	vector    driven.VectorIndex
	workers   int

	// Run guard and status tracking.
	mu      sync.Mutex
	running bool

	statusMu sync.RWMutex
	status   driving.IndexStatus
}

// NewIndexerService creates an indexer. The vector index is optional;
// when nil the rebuild step is skipped.
func NewIndexerService(
	store driven.IndexStore,
	extractor driven.TextExtractor,
	lister driven.CorpusLister,
	vector driven.VectorIndex,
) *IndexerService {
	return &IndexerService{
		store:     store,
		extractor: extractor,
		lister:    lister,
		vector:    vector,
		workers:   defaultWorkers,
	}
}

// SetWorkers overrides the extraction worker count.
func (s *IndexerService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Run scans the corpus and indexes new or changed files. Unchanged
// files (same size and modification time) are skipped. A failed file is
// reported and the run continues. After the batch the vector index is
// rebuilt and swapped.
func (s *IndexerService) Run(ctx context.Context, root string) (*domain.IndexReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, domain.ErrIndexInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.setStatus(func(st *driving.IndexStatus) { st.Running = false })
	}()

	report := &domain.IndexReport{
		RunID:     uuid.NewString(),
		Root:      root,
		StartedAt: time.Now(),
	}
	s.statusMu.Lock()
	s.status = driving.IndexStatus{Running: true, RunID: report.RunID}
	s.statusMu.Unlock()

	logger.Section("Indexing Run")
	logger.Info("Run %s over %s", report.RunID, root)

	// A missing corpus root is fatal; nothing is committed.
	files, err := s.lister.List(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	logger.Debug("Corpus: %d files", len(files))

	existing, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexed documents: %w", err)
	}
	byFilename := make(map[string]domain.Document, len(existing))
	for _, d := range existing {
		byFilename[d.Filename] = d
	}

	// Phase 1: decide what changed.
	var toExtract []driven.CorpusFile
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.Filename] = true
		prev, ok := byFilename[f.Filename]
		if ok && prev.Size == f.Size && prev.ModTime.Equal(f.ModTime) {
			report.Outcomes = append(report.Outcomes, domain.FileOutcome{
				Filename: f.Filename,
				Status:   domain.FileUnchanged,
			})
			continue
		}
		toExtract = append(toExtract, f)
	}
	logger.Debug("To extract: %d files", len(toExtract))

	// Phase 2: parallel extraction. Failures are collected, never
	// propagated, so one bad file cannot abort the batch.
	extractedCh := make(chan extracted, len(toExtract))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, f := range toExtract {
		f := f
		g.Go(func() error {
			pages, err := s.extractor.Extract(gctx, f.Path)
			select {
			case extractedCh <- extracted{file: f, pages: pages, err: err}:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	close(extractedCh)

	// Phase 3: serialised writes, one transaction per document.
	changed := false
	for ex := range extractedCh {
		outcome := s.commitOne(ctx, ex)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Status == domain.FileIndexed {
			changed = true
		}
		s.setStatus(func(st *driving.IndexStatus) {
			st.Processed++
			if outcome.Status == domain.FileFailed {
				st.Failed++
			}
		})
	}

	// Phase 4: drop documents whose file vanished from the corpus.
	for _, d := range existing {
		if present[d.Filename] {
			continue
		}
		if err := s.store.DeleteDocument(ctx, d.ID); err != nil {
			logger.Warn("Failed to remove %s: %v", d.Filename, err)
			report.Outcomes = append(report.Outcomes, domain.FileOutcome{
				Filename: d.Filename,
				Status:   domain.FileFailed,
				Err:      err.Error(),
			})
			continue
		}
		changed = true
		report.Outcomes = append(report.Outcomes, domain.FileOutcome{
			Filename: d.Filename,
			Status:   domain.FileRemoved,
		})
	}

	// Phase 5: rebuild the vector index and swap it in.
	if changed && s.vector != nil {
		pages, err := s.store.ListPages(ctx)
		if err != nil {
			return nil, fmt.Errorf("list pages for vector rebuild: %w", err)
		}
		if err := s.vector.Rebuild(ctx, pages); err != nil {
			return nil, fmt.Errorf("vector rebuild: %w", err)
		}
		report.VectorRebuilt = true
		logger.Info("Vector index rebuilt: %d pages", len(pages))
	}

	report.FinishedAt = time.Now()
	indexed, unchanged, failed := report.Counts()
	logger.Info("Run %s done: %d indexed, %d unchanged, %d failed",
		report.RunID, indexed, unchanged, failed)

	return report, nil
}

// commitOne turns one extraction into document, page and mention rows
// committed in a single transaction.
func (s *IndexerService) commitOne(ctx context.Context, ex extracted) domain.FileOutcome {
	if ex.err != nil {
		logger.Warn("Extraction failed for %s: %v", ex.file.Filename, ex.err)
		return domain.FileOutcome{
			Filename: ex.file.Filename,
			Status:   domain.FileFailed,
			Err:      ex.err.Error(),
		}
	}

	doc := domain.Document{
		Filename:  ex.file.Filename,
		Path:      ex.file.Path,
		Size:      ex.file.Size,
		ModTime:   ex.file.ModTime,
		PageCount: len(ex.pages),
		IndexedAt: time.Now(),
	}

	// An unparsable version tag is not fatal; the document is indexed
	// without ordering information.
	if v, err := domain.VersionFromFilename(ex.file.Filename); err == nil {
		doc.Version = v
		doc.VersionRaw = v.String()
	} else {
		logger.Debug("No version tag in %s: %v", ex.file.Filename, err)
	}

	pages := make([]domain.Page, 0, len(ex.pages))
	var mentions []domain.PRMention
	for i, text := range ex.pages {
		pageNum := i + 1
		pages = append(pages, domain.Page{PageNum: pageNum, Text: text})
		mentions = append(mentions, prscan.Extract(text, 0, pageNum)...)
	}

	if err := s.store.ReplaceDocument(ctx, &doc, pages, mentions); err != nil {
		logger.Warn("Index write failed for %s: %v", ex.file.Filename, err)
		return domain.FileOutcome{
			Filename: ex.file.Filename,
			Status:   domain.FileFailed,
			Err:      err.Error(),
		}
	}

	logger.Debug("Indexed %s: %d pages, %d mentions", ex.file.Filename, len(pages), len(mentions))
	return domain.FileOutcome{
		Filename: ex.file.Filename,
		Status:   domain.FileIndexed,
		Pages:    len(pages),
		Mentions: len(mentions),
	}
}

// Status returns the state of the current or most recent run.
func (s *IndexerService) Status() driving.IndexStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *IndexerService) setStatus(update func(*driving.IndexStatus)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	update(&s.status)
}
