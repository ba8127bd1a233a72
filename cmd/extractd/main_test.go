package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A misconfigured embedding provider must abort the run. Lexical-only
// deduplication is selected explicitly with provider "none", never by
// falling back from a construction failure.
func TestRunExtract_EmbeddingProviderFailureIsFatal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	confDir := filepath.Join(home, ".config", "extractd")
	require.NoError(t, os.MkdirAll(confDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(confDir, "config.yaml"),
		[]byte("embeddings:\n  provider: quantum\n"), 0600))

	input := filepath.Join(t.TempDir(), "meeting.json")
	require.NoError(t, os.WriteFile(input, []byte(`{
		"reference_date": "2025-11-01",
		"transcript": [{"speaker": "Tom", "text": "We need to prepare the quarterly report."}]
	}`), 0600))

	prevFormat := outputFormat
	outputFormat = "json"
	t.Cleanup(func() { outputFormat = prevFormat })

	err := runExtract(extractCmd, []string{input})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding provider")
}
