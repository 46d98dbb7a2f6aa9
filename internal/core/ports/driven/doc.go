// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - IndexStore: Document, page and mention persistence
//   - LexicalEngine: Full-text keyword search (SQLite FTS5)
//   - TextExtractor: Per-page text extraction from corpus files
//   - CorpusLister: Corpus directory enumeration
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: TF-IDF similarity. Without it, scoring is lexical and phrase only.
//   - AnswerGenerator: Language model answers. Without it, the answer flag is disabled.
//   - CorpusWatcher: Filesystem change events. Only the watch command needs it.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
