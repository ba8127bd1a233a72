//go:build cgo

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/extractd/internal/embeddings"
)

// ensureRuntime downloads the ONNX runtime for the local embedding provider.
func ensureRuntime(cmd *cobra.Command) error {
	path, err := embeddings.EnsureONNXRuntime(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ONNX runtime available at %s\n", path)
	return nil
}
