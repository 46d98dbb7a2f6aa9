// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - IndexStore: Document, page and PR-mention persistence
//   - LexicalEngine: FTS5 keyword search with BM25 ranking
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Page text lives in an FTS5 virtual table so the
// index is the search engine; there is no separate copy of the text.
//
// # Data Location
//
// By default, the database is stored at ~/.prsearch/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
