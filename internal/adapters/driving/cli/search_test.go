package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

// stubSearcher returns canned results for command tests.
type stubSearcher struct {
	results []domain.SearchResult
	report  *domain.DeltaReport
	err     error
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return s.results, s.err
}

func (s *stubSearcher) LookupPR(_ context.Context, _ string) ([]domain.SearchResult, error) {
	return s.results, s.err
}

func (s *stubSearcher) Delta(_ context.Context, _, _ string) (*domain.DeltaReport, error) {
	return s.report, s.err
}

func (s *stubSearcher) Answer(_ context.Context, _ string, _ domain.SearchOptions) (string, []domain.SearchResult, error) {
	return "stub answer", s.results, s.err
}

// setupTestServices installs a stub searcher and returns a cleanup func.
func setupTestServices(stub *stubSearcher) func() {
	oldSearch := searchService
	searchService = stub
	return func() {
		searchService = oldSearch
	}
}

func stubResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Document: domain.Document{ID: 1, Filename: "ProductA_21.4.0_SP2_ReleaseNotes.pdf"},
			PageNum:  12,
			PRNumber: "PR-123456",
			Class:    domain.ClassIssueFix,
			Score:    0.95,
			Snippet:  "PR-123456 fixed the login timeout",
		},
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search indexed release notes", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices(&stubSearcher{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices(&stubSearcher{results: stubResults()})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "login timeout"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Results:")
	assert.Contains(t, buf.String(), "ProductA_21.4.0_SP2_ReleaseNotes.pdf")
	assert.Contains(t, buf.String(), "issue fix")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices(&stubSearcher{results: stubResults()})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--json", "login timeout"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchJSON = false // Reset flag
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"PRNumber\"")
	assert.Contains(t, buf.String(), "\"Score\"")
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices(nil)
	searchService = nil
	defer cleanup()

	err := runSearch(rootCmd, []string{"test"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices(&stubSearcher{err: errors.New("boom")})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "test"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestOutputSearchTable_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchTable(rootCmd, []domain.SearchResult{})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}

func TestOutputSearchJSON_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchJSON(rootCmd, []domain.SearchResult{})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "[]")
}

func TestPRCmd_Executes(t *testing.T) {
	cleanup := setupTestServices(&stubSearcher{results: stubResults()})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"pr", "123456"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "PR-123456 appears in 1 document(s)")
}

func TestPRCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices(&stubSearcher{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"pr", "999999"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "PR not found")
}

func TestDeltaCmd_Executes(t *testing.T) {
	from, err := domain.ParseVersion("21.2.0")
	require.NoError(t, err)
	to, err := domain.ParseVersion("21.4.0")
	require.NoError(t, err)

	cleanup := setupTestServices(&stubSearcher{report: &domain.DeltaReport{
		From: from,
		To:   to,
		Entries: []domain.DeltaEntry{
			{PRNumber: "PR-234567", Class: domain.ClassNewFeature, Version: to, Filename: "notes.pdf", IsNew: true},
		},
		ByClass: map[domain.Classification]int{domain.ClassNewFeature: 1},
	}})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"delta", "21.2.0", "21.4.0"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "PR-234567")
	assert.Contains(t, buf.String(), "new feature")
}
