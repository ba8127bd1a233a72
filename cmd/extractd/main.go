// Package main implements the extractd CLI for extracting action items
// from meeting transcripts.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/extractd/internal/config"
	"github.com/fyrsmithlabs/extractd/internal/detect"
	"github.com/fyrsmithlabs/extractd/internal/embeddings"
	"github.com/fyrsmithlabs/extractd/internal/logging"
	"github.com/fyrsmithlabs/extractd/internal/oracle"
	"github.com/fyrsmithlabs/extractd/internal/pipeline"
	"github.com/fyrsmithlabs/extractd/internal/task"
	"github.com/fyrsmithlabs/extractd/internal/transcript"
)

var (
	// configPath overrides the default config file location
	configPath string
	// outputFormat selects extract output rendering
	outputFormat string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "extractd",
	Short: "Extract action items from meeting transcripts",
	Long: `extractd scans speaker-attributed meeting transcripts for commitments,
requests and assignments, resolves assignees and deadlines, scores each
candidate and emits deduplicated action item records.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/extractd/config.yaml)")
	extractCmd.Flags().StringVar(&outputFormat, "format", "json", "output format: json or text")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(initCmd)
}

// extractCmd runs the pipeline over one transcript file or stdin.
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract action items from a transcript",
	Long: `Extract action items from a transcript JSON file or stdin.

The input is a JSON document with a "transcript" array of utterances
({"speaker", "text", "start", "end"}), a "reference_date" and an
optional "participants" roster.

Examples:
  # Extract from a file
  extractd extract meeting.json

  # Extract from stdin
  cat meeting.json | extractd extract -

  # Human-readable output
  extractd extract --format text meeting.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

// patternsCmd lists the built-in pattern families.
var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List built-in pattern families",
	Long:  `List the built-in pattern families with their priors and trigger counts.`,
	RunE:  runPatterns,
}

// initCmd prepares the local environment.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the local environment",
	Long: `Create the config directory and download the ONNX runtime used by
the local embedding provider.`,
	RunE: runInit,
}

// runExtract handles the extract command
func runExtract(cmd *cobra.Command, args []string) error {
	if outputFormat != "json" && outputFormat != "text" {
		return fmt.Errorf("unknown format %q (expected json or text)", outputFormat)
	}

	var content []byte
	var err error

	// Read input from file or stdin
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	meeting, err := transcript.ParseMeeting(content)
	if err != nil {
		return fmt.Errorf("failed to parse transcript: %w", err)
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	// Lexical-only deduplication is opted into with provider "none";
	// a provider that fails to construct is an error, not a downgrade.
	embedder, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	if embedder != nil {
		defer embedder.Close()
	}

	clarifier, err := oracle.NewClarifier(cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to create clarifier: %w", err)
	}

	engine, err := pipeline.New(cfg, providerOrNil(embedder), clarifier, logger)
	if err != nil {
		return fmt.Errorf("failed to assemble pipeline: %w", err)
	}

	records, err := engine.Extract(cmd.Context(), meeting)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	switch outputFormat {
	case "text":
		return writeText(cmd.OutOrStdout(), records)
	default:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
}

// providerOrNil flattens a typed-nil Provider into a nil Embedder.
func providerOrNil(p embeddings.Provider) embeddings.Embedder {
	if p == nil {
		return nil
	}
	return p
}

// writeText renders records as an aligned table.
func writeText(w io.Writer, records []task.TaskRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tCONFIDENCE\tASSIGNEE\tDUE\tDESCRIPTION")
	for _, r := range records {
		due := "-"
		if r.DueDate != nil {
			due = r.DueDate.Format("2006-01-02")
		}
		assignee := r.Assignee
		if assignee == "" {
			assignee = "-"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%s\n", r.Priority, r.Confidence, assignee, due, r.Description)
	}
	return tw.Flush()
}

// runPatterns handles the patterns command
func runPatterns(cmd *cobra.Command, _ []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FAMILY\tPRIOR\tTRIGGERS")
	for _, f := range detect.DefaultFamilies() {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\n", f.Name, f.Prior, len(f.Triggers))
	}
	return tw.Flush()
}

// runInit handles the init command
func runInit(cmd *cobra.Command, _ []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	return ensureRuntime(cmd)
}
