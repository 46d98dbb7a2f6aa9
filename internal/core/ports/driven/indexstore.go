package driven

import (
	"context"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

// IndexStore persists documents, pages and PR mentions.
// Backed by SQLite for metadata and full-text storage.
type IndexStore interface {
	// ReplaceDocument writes a document with its pages and mentions
	// in a single transaction, replacing any previous rows for the
	// same filename. Readers never observe a partial rewrite. The
	// store assigns doc.ID and stamps it onto the pages and mentions.
	ReplaceDocument(ctx context.Context, doc *domain.Document, pages []domain.Page, mentions []domain.PRMention) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// GetDocumentByFilename retrieves a document by its unique filename.
	GetDocumentByFilename(ctx context.Context, filename string) (*domain.Document, error)

	// ListDocuments returns all indexed documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document with its pages and mentions.
	DeleteDocument(ctx context.Context, id int64) error

	// GetPage retrieves one page of a document.
	GetPage(ctx context.Context, fileID int64, pageNum int) (*domain.Page, error)

	// ListPages returns every indexed page. Used for vector rebuilds.
	ListPages(ctx context.Context) ([]domain.Page, error)

	// MentionsForPR returns all mentions of one PR across the corpus.
	MentionsForPR(ctx context.Context, prNumber string) ([]domain.PRMention, error)

	// MentionsOnPage returns the mentions recorded on one page.
	MentionsOnPage(ctx context.Context, fileID int64, pageNum int) ([]domain.PRMention, error)

	// ListMentions returns every recorded mention. Used for delta
	// reports.
	ListMentions(ctx context.Context) ([]domain.PRMention, error)

	// Close releases resources.
	Close() error
}
