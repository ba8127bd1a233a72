// Package embeddings provides embedding generation via multiple providers.
//
// Supports FastEmbed (local ONNX) and TEI (external service) providers.
// Factory pattern enables provider selection at runtime with automatic
// dimension detection for common models. The "none" provider disables
// semantic similarity entirely; deduplication then runs lexical-only.
package embeddings
