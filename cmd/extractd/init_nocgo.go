//go:build !cgo

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ensureRuntime is a no-op without CGO: the local embedding provider is
// unavailable, so there is no ONNX runtime to install.
func ensureRuntime(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "built without CGO: local embeddings unavailable, use the TEI provider")
	return nil
}
