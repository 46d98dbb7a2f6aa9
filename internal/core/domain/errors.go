package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnparsableVersion indicates a version tag is missing the
	// dotted numeric triple. Documents carrying such tags are still
	// indexed but excluded from version ordering.
	ErrUnparsableVersion = errors.New("unparsable version tag")

	// ErrIndexInProgress indicates an indexing run is already active.
	// Only one writer may run at a time; readers are unaffected.
	ErrIndexInProgress = errors.New("indexing already in progress")

	// ErrCorpusUnavailable indicates the corpus root cannot be read.
	// The indexing run aborts without committing anything.
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrLexicalUnavailable indicates the full-text engine is not configured.
	ErrLexicalUnavailable = errors.New("lexical engine unavailable")

	// ErrGeneratorUnavailable indicates no answer generator is configured.
	// Retrieval still works; prose answers are disabled.
	ErrGeneratorUnavailable = errors.New("answer generator unavailable")
)
