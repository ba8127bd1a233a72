// Package oracle provides optional LLM-backed clarification for
// borderline task records. The pipeline works without it; a clarifier
// that is unavailable or failing never blocks extraction.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/extractd/internal/task"
)

// Clarifier reviews a borderline task record. Returning nil (with no
// error) means the record is not a real task and should be dropped;
// returning a record means keep it, possibly with a rewritten
// description or corrected assignee.
type Clarifier interface {
	Clarify(ctx context.Context, record task.TaskRecord) (*task.TaskRecord, error)
	// Available reports whether the clarifier can actually be called.
	Available() bool
}

// Config holds clarifier configuration.
type Config struct {
	// Enabled turns clarification on. Off by default.
	Enabled bool `koanf:"enabled"`

	// Provider selects the backing LLM: "anthropic", "openai" or
	// "disabled".
	Provider string `koanf:"provider"`

	// ConfidenceBand is the band above the scorer threshold within
	// which records are sent for clarification. Records scoring above
	// threshold+band are trusted without review.
	ConfidenceBand float64 `koanf:"confidence_band"`

	// Timeout bounds a single clarification call.
	Timeout time.Duration `koanf:"timeout"`

	// Providers holds per-provider connection settings.
	Providers map[string]ProviderConfig `koanf:"providers"`
}

// ProviderConfig holds connection settings for one LLM provider.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
	// TimeoutSeconds bounds the underlying HTTP client.
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// DefaultConfig returns the default clarifier configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		Provider:       "disabled",
		ConfidenceBand: 0.15,
		Timeout:        10 * time.Second,
	}
}

// NewClarifier creates a clarifier based on configuration.
func NewClarifier(cfg Config) (Clarifier, error) {
	if !cfg.Enabled || cfg.Provider == "disabled" || cfg.Provider == "" {
		return &NoOpClarifier{}, nil
	}

	providerCfg, ok := cfg.Providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", cfg.Provider)
	}

	switch cfg.Provider {
	case "anthropic":
		return newAnthropicClarifier(providerCfg)
	case "openai":
		return newOpenAIClarifier(providerCfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NoOpClarifier is a no-op implementation of Clarifier.
type NoOpClarifier struct{}

// Clarify returns the record unchanged.
func (n *NoOpClarifier) Clarify(_ context.Context, record task.TaskRecord) (*task.TaskRecord, error) {
	return &record, nil
}

// Available returns false for NoOpClarifier.
func (n *NoOpClarifier) Available() bool {
	return false
}

var _ Clarifier = (*NoOpClarifier)(nil)
