package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.NotEmpty(t, cfg.Detector.Families)
	assert.Equal(t, 2, cfg.Resolver.DateContextWindow)
	assert.Equal(t, 0.5, cfg.Scorer.MinConfidence)
	assert.Equal(t, 0.3, cfg.Scorer.BaseRate)
	assert.Equal(t, 0.5, cfg.Dedup.LexicalThreshold)
	assert.Equal(t, 0.8, cfg.Dedup.SemanticThreshold)
	assert.Equal(t, "fastembed", cfg.Embeddings.Provider)
	assert.False(t, cfg.Oracle.Enabled)
	assert.Equal(t, 0.15, cfg.Oracle.ConfidenceBand)
	require.NoError(t, cfg.Validate())
}

func TestLoadBytes(t *testing.T) {
	content := []byte(`
scorer:
  min_confidence: 0.6
dedup:
  semantic_threshold: 0.9
oracle:
  enabled: true
  provider: anthropic
  timeout: 5s
  providers:
    anthropic:
      api_key: test-key
`)

	cfg, err := LoadBytes(content)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.Scorer.MinConfidence)
	assert.Equal(t, 0.9, cfg.Dedup.SemanticThreshold)
	assert.True(t, cfg.Oracle.Enabled)
	assert.Equal(t, "anthropic", cfg.Oracle.Provider)
	assert.Equal(t, "test-key", cfg.Oracle.Providers["anthropic"].APIKey)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.3, cfg.Scorer.BaseRate)
	assert.Equal(t, 0.5, cfg.Dedup.LexicalThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadBytes_InvalidYAML(t *testing.T) {
	_, err := LoadBytes([]byte("scorer: ["))
	assert.Error(t, err)
}

func TestLoadBytes_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"base rate too high", "scorer:\n  base_rate: 1.5\n"},
		{"lexical threshold out of range", "dedup:\n  lexical_threshold: 2\n"},
		{"negative context window", "resolver:\n  date_context_window: -1\n"},
		{"bad log level", "logging:\n  level: shouting\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithFile_FileAndEnvPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "extractd")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scorer:\n  min_confidence: 0.7\ndedup:\n  lexical_threshold: 0.4\n"), 0600))

	t.Setenv("SCORER_MIN_CONFIDENCE", "0.65")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.65, cfg.Scorer.MinConfidence, "environment overrides the file")
	assert.Equal(t, 0.4, cfg.Dedup.LexicalThreshold, "file overrides defaults")
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Scorer.MinConfidence)
}

func TestLoadWithFile_RejectsInsecurePermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "extractd")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scorer:\n  min_confidence: 0.7\n"), 0644))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_RejectsPathOutsideAllowedDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	outside := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("scorer:\n  min_confidence: 0.7\n"), 0600))

	_, err := LoadWithFile(outside)
	assert.Error(t, err)
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, EnsureConfigDir())
	info, err := os.Stat(filepath.Join(home, ".config", "extractd"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}
