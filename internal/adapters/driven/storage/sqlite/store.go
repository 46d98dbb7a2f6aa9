package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/relnote-labs/prsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides the index
// store and the full-text engine through wrapper types. WAL mode keeps
// readers unblocked while the indexer writes.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.prsearch/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".prsearch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// IndexStore returns an IndexStore interface backed by this store.
func (s *Store) IndexStore() driven.IndexStore {
	return &indexStore{store: s}
}

// LexicalEngine returns a LexicalEngine interface backed by this store.
func (s *Store) LexicalEngine() driven.LexicalEngine {
	return &lexicalEngine{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Index Store ====================

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// ReplaceDocument writes a document with its pages and mentions in a
// single transaction, replacing any previous rows for the filename.
func (s *indexStore) ReplaceDocument(
	ctx context.Context, doc *domain.Document, pages []domain.Page, mentions []domain.PRMention,
) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Drop previous rows for this filename, if any.
	var oldID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE filename = ?", doc.Filename).Scan(&oldID)
	switch {
	case err == sql.ErrNoRows:
		// New document.
	case err != nil:
		return fmt.Errorf("looking up filename: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE file_id = ?", oldID); err != nil {
			return fmt.Errorf("deleting old pages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pr_mentions WHERE file_id = ?", oldID); err != nil {
			return fmt.Errorf("deleting old mentions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", oldID); err != nil {
			return fmt.Errorf("deleting old document: %w", err)
		}
	}

	hasVersion := 0
	if !doc.Version.IsZero() {
		hasVersion = 1
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents
			(filename, path, version_raw, has_version, v_major, v_minor, v_patch, v_sp, v_hf,
			 size, mod_time, page_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Filename, doc.Path, doc.VersionRaw, hasVersion,
		doc.Version.Major, doc.Version.Minor, doc.Version.Patch, doc.Version.SP, doc.Version.HF,
		doc.Size, doc.ModTime, doc.PageCount, doc.IndexedAt)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting document id: %w", err)
	}
	doc.ID = id

	pageStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO pages (text, file_id, page_num) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing page insert: %w", err)
	}
	defer pageStmt.Close()

	for i := range pages {
		pages[i].FileID = id
		if _, err := pageStmt.ExecContext(ctx, pages[i].Text, id, pages[i].PageNum); err != nil {
			return fmt.Errorf("inserting page %d: %w", pages[i].PageNum, err)
		}
	}

	mentionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pr_mentions (pr_number, file_id, page_num, class, context)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pr_number, file_id, page_num) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing mention insert: %w", err)
	}
	defer mentionStmt.Close()

	for i := range mentions {
		mentions[i].FileID = id
		if _, err := mentionStmt.ExecContext(ctx, mentions[i].PRNumber, id,
			mentions[i].PageNum, string(mentions[i].Class), mentions[i].Context); err != nil {
			return fmt.Errorf("inserting mention %s: %w", mentions[i].PRNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// documentColumns is the select list shared by the document scanners.
const documentColumns = `id, filename, path, version_raw, has_version,
	v_major, v_minor, v_patch, v_sp, v_hf, size, mod_time, page_count, indexed_at`

// GetDocument retrieves a document by ID.
func (s *indexStore) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// GetDocumentByFilename retrieves a document by its unique filename.
func (s *indexStore) GetDocumentByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE filename = ?", filename)
	return scanDocument(row)
}

// ListDocuments returns all indexed documents.
func (s *indexStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY filename")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document with its pages and mentions.
func (s *indexStore) DeleteDocument(ctx context.Context, id int64) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE file_id = ?", id); err != nil {
		return fmt.Errorf("deleting pages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pr_mentions WHERE file_id = ?", id); err != nil {
		return fmt.Errorf("deleting mentions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetPage retrieves one page of a document.
func (s *indexStore) GetPage(ctx context.Context, fileID int64, pageNum int) (*domain.Page, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT text, file_id, page_num FROM pages WHERE file_id = ? AND page_num = ?",
		fileID, pageNum)

	var page domain.Page
	if err := row.Scan(&page.Text, &page.FileID, &page.PageNum); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	return &page, nil
}

// ListPages returns every indexed page.
func (s *indexStore) ListPages(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT text, file_id, page_num FROM pages ORDER BY file_id, page_num")
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page //nolint:prealloc // size unknown from query
	for rows.Next() {
		var page domain.Page
		if err := rows.Scan(&page.Text, &page.FileID, &page.PageNum); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}

	return pages, nil
}

// MentionsForPR returns all mentions of one PR across the corpus.
func (s *indexStore) MentionsForPR(ctx context.Context, prNumber string) ([]domain.PRMention, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pr_number, file_id, page_num, class, context
		FROM pr_mentions WHERE pr_number = ?
		ORDER BY file_id, page_num
	`, prNumber)
	if err != nil {
		return nil, fmt.Errorf("querying mentions: %w", err)
	}
	defer rows.Close()

	return scanMentions(rows)
}

// MentionsOnPage returns the mentions recorded on one page.
func (s *indexStore) MentionsOnPage(ctx context.Context, fileID int64, pageNum int) ([]domain.PRMention, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pr_number, file_id, page_num, class, context
		FROM pr_mentions WHERE file_id = ? AND page_num = ?
		ORDER BY pr_number
	`, fileID, pageNum)
	if err != nil {
		return nil, fmt.Errorf("querying mentions: %w", err)
	}
	defer rows.Close()

	return scanMentions(rows)
}

// ListMentions returns every recorded mention.
func (s *indexStore) ListMentions(ctx context.Context) ([]domain.PRMention, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pr_number, file_id, page_num, class, context
		FROM pr_mentions ORDER BY pr_number, file_id, page_num
	`)
	if err != nil {
		return nil, fmt.Errorf("querying mentions: %w", err)
	}
	defer rows.Close()

	return scanMentions(rows)
}

// Close is a no-op for the wrapper; the parent Store owns the handle.
func (s *indexStore) Close() error {
	return nil
}

// ==================== Lexical Engine ====================

// lexicalEngine implements driven.LexicalEngine over the pages FTS5
// table with BM25 ranking.
type lexicalEngine struct {
	store *Store
}

var _ driven.LexicalEngine = (*lexicalEngine)(nil)

// SearchAll matches pages containing every term.
func (e *lexicalEngine) SearchAll(ctx context.Context, terms []string, limit int) ([]driven.LexicalHit, error) {
	return e.match(ctx, ftsQuery(terms, " AND "), limit)
}

// SearchAny matches pages containing any term.
func (e *lexicalEngine) SearchAny(ctx context.Context, terms []string, limit int) ([]driven.LexicalHit, error) {
	return e.match(ctx, ftsQuery(terms, " OR "), limit)
}

// SearchPhrase matches pages containing the exact phrase.
func (e *lexicalEngine) SearchPhrase(ctx context.Context, phrase string, limit int) ([]driven.LexicalHit, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, nil
	}
	return e.match(ctx, quoteFTS(phrase), limit)
}

func (e *lexicalEngine) match(ctx context.Context, match string, limit int) ([]driven.LexicalHit, error) {
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := e.store.db.QueryContext(ctx, `
		SELECT file_id, page_num, bm25(pages)
		FROM pages WHERE pages MATCH ?
		ORDER BY bm25(pages) LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query %q: %w", match, err)
	}
	defer rows.Close()

	var hits []driven.LexicalHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.LexicalHit
		var rank float64
		if err := rows.Scan(&hit.FileID, &hit.PageNum, &rank); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		// bm25() returns lower-is-better negative ranks; flip so
		// callers see higher-is-better scores.
		hit.Score = -rank
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}

// ftsQuery joins quoted terms with the given FTS5 operator.
func ftsQuery(terms []string, op string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, quoteFTS(t))
	}
	return strings.Join(quoted, op)
}

// quoteFTS wraps a term in double quotes so it is taken literally by
// the FTS5 query parser.
func quoteFTS(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ==================== Helper Functions ====================

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var hasVersion int

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Path, &doc.VersionRaw, &hasVersion,
		&doc.Version.Major, &doc.Version.Minor, &doc.Version.Patch,
		&doc.Version.SP, &doc.Version.HF,
		&doc.Size, &doc.ModTime, &doc.PageCount, &doc.IndexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	finishDocument(&doc, hasVersion)
	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var hasVersion int

	if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Path, &doc.VersionRaw, &hasVersion,
		&doc.Version.Major, &doc.Version.Minor, &doc.Version.Patch,
		&doc.Version.SP, &doc.Version.HF,
		&doc.Size, &doc.ModTime, &doc.PageCount, &doc.IndexedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	finishDocument(&doc, hasVersion)
	return &doc, nil
}

// finishDocument restores the zero version for documents indexed
// without a parsable tag.
func finishDocument(doc *domain.Document, hasVersion int) {
	if hasVersion == 0 {
		doc.Version = domain.Version{}
	} else {
		doc.Version.Raw = doc.VersionRaw
	}
}

// scanMentions scans multiple mention rows.
func scanMentions(rows *sql.Rows) ([]domain.PRMention, error) {
	var mentions []domain.PRMention //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.PRMention
		var class string
		if err := rows.Scan(&m.PRNumber, &m.FileID, &m.PageNum, &class, &m.Context); err != nil {
			return nil, fmt.Errorf("scanning mention: %w", err)
		}
		m.Class = domain.Classification(class)
		mentions = append(mentions, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mentions: %w", err)
	}

	return mentions, nil
}
