package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStructuredQuery_IsPRLookup tests the PR short-circuit predicate.
func TestStructuredQuery_IsPRLookup(t *testing.T) {
	assert.False(t, StructuredQuery{}.IsPRLookup())
	assert.True(t, StructuredQuery{PRNumber: "PR-123456"}.IsPRLookup())
}

// TestStructuredQuery_IsVersionRange tests that a range needs both bounds.
func TestStructuredQuery_IsVersionRange(t *testing.T) {
	v, err := ParseVersion("21.4.0")
	require.NoError(t, err)

	assert.False(t, StructuredQuery{}.IsVersionRange())
	assert.False(t, StructuredQuery{FromVersion: v}.IsVersionRange())
	assert.False(t, StructuredQuery{ToVersion: v}.IsVersionRange())
	assert.True(t, StructuredQuery{FromVersion: v, ToVersion: v}.IsVersionRange())
}
