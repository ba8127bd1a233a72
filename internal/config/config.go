// Package config provides configuration loading for extractd.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/extractd/internal/dedup"
	"github.com/fyrsmithlabs/extractd/internal/detect"
	"github.com/fyrsmithlabs/extractd/internal/embeddings"
	"github.com/fyrsmithlabs/extractd/internal/entities"
	"github.com/fyrsmithlabs/extractd/internal/logging"
	"github.com/fyrsmithlabs/extractd/internal/oracle"
	"github.com/fyrsmithlabs/extractd/internal/score"
)

// Config is the root configuration for extractd.
type Config struct {
	Logging    logging.Config    `koanf:"logging"`
	Detector   detect.Config     `koanf:"detector"`
	Resolver   entities.Config   `koanf:"resolver"`
	Scorer     score.Config      `koanf:"scorer"`
	Dedup      dedup.Config      `koanf:"dedup"`
	Embeddings embeddings.Config `koanf:"embeddings"`
	Oracle     oracle.Config     `koanf:"oracle"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "extractd"}
	}

	// Detector defaults
	if len(cfg.Detector.Families) == 0 {
		cfg.Detector.Families = detect.DefaultFamilies()
	}
	if len(cfg.Detector.Exclusions) == 0 {
		cfg.Detector.Exclusions = detect.DefaultExclusions()
	}
	if cfg.Detector.MinSpanWords == 0 {
		cfg.Detector.MinSpanWords = detect.DefaultConfig().MinSpanWords
	}

	// Resolver defaults
	if cfg.Resolver.DateContextWindow == 0 {
		cfg.Resolver.DateContextWindow = entities.DefaultConfig().DateContextWindow
	}

	// Scorer defaults
	if cfg.Scorer.MinConfidence == 0 {
		cfg.Scorer.MinConfidence = score.DefaultConfig().MinConfidence
	}
	if cfg.Scorer.BaseRate == 0 {
		cfg.Scorer.BaseRate = score.DefaultConfig().BaseRate
	}
	if cfg.Scorer.DueSoonWindow == 0 {
		cfg.Scorer.DueSoonWindow = score.DefaultConfig().DueSoonWindow
	}

	// Dedup defaults
	if cfg.Dedup.LexicalThreshold == 0 {
		cfg.Dedup.LexicalThreshold = dedup.DefaultConfig().LexicalThreshold
	}
	if cfg.Dedup.SemanticThreshold == 0 {
		cfg.Dedup.SemanticThreshold = dedup.DefaultConfig().SemanticThreshold
	}

	// Embeddings defaults
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = embeddings.DefaultConfig().Provider
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = embeddings.DefaultConfig().Model
	}
	if cfg.Embeddings.Provider == "tei" && cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}

	// Oracle defaults
	if cfg.Oracle.Provider == "" {
		cfg.Oracle.Provider = oracle.DefaultConfig().Provider
	}
	if cfg.Oracle.ConfidenceBand == 0 {
		cfg.Oracle.ConfidenceBand = oracle.DefaultConfig().ConfidenceBand
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = oracle.DefaultConfig().Timeout
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Detector.MinSpanWords < 0 {
		return fmt.Errorf("detector: min_span_words must be >= 0, got %d", c.Detector.MinSpanWords)
	}
	if c.Resolver.DateContextWindow < 0 {
		return fmt.Errorf("resolver: date_context_window must be >= 0, got %d", c.Resolver.DateContextWindow)
	}
	if c.Scorer.MinConfidence < 0 || c.Scorer.MinConfidence > 1 {
		return fmt.Errorf("scorer: min_confidence must be in [0, 1], got %v", c.Scorer.MinConfidence)
	}
	if c.Scorer.BaseRate < 0 || c.Scorer.BaseRate >= 1 {
		return fmt.Errorf("scorer: base_rate must be in [0, 1), got %v", c.Scorer.BaseRate)
	}
	if c.Dedup.LexicalThreshold <= 0 || c.Dedup.LexicalThreshold > 1 {
		return fmt.Errorf("dedup: lexical_threshold must be in (0, 1], got %v", c.Dedup.LexicalThreshold)
	}
	if c.Dedup.SemanticThreshold <= 0 || c.Dedup.SemanticThreshold > 1 {
		return fmt.Errorf("dedup: semantic_threshold must be in (0, 1], got %v", c.Dedup.SemanticThreshold)
	}
	if c.Oracle.ConfidenceBand < 0 || c.Oracle.ConfidenceBand > 1 {
		return fmt.Errorf("oracle: confidence_band must be in [0, 1], got %v", c.Oracle.ConfidenceBand)
	}
	return nil
}
