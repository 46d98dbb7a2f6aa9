// Package domain defines the core business entities for prsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An indexed release-note file with its version tag
//   - Page: A searchable unit of document text
//   - PRMention: One PR occurrence on a page, with classification
//   - Version: A parsed release tag ordered across SP/HF/B lines
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
