package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papertrans/internal/config"
	"github.com/dgallion1/papertrans/internal/logging"
	"github.com/dgallion1/papertrans/internal/parser"
)

var (
	jsonOutput bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "papertrans",
	Short: "Inspect, split and translate OCR'd paper markdown",
	Long: `papertrans tokenizes markdown produced by OCR of academic papers into
structural blocks, splits it into translation units and translates it with
an OpenAI-compatible chat model.

Files in .pdf, .docx, .html, .csv and .txt format are converted to markdown
first. Use "-" to read markdown from stdin.

Examples:
  papertrans segment paper.md
  papertrans chunks paper.md --budget 800
  papertrans check paper.md paper.zh.md
  papertrans breaks paper.md
  papertrans convert paper.pdf -o paper.md
  papertrans translate paper.md --style replace`,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")

	rootCmd.AddCommand(segmentCmd, sectionsCmd, chunksCmd, outlineCmd,
		checkCmd, breaksCmd, convertCmd, relevelCmd, translateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment configuration; --log-level overrides
// LOG_LEVEL. Logs go to stderr so stdout stays clean for output.
func loadConfig() (config.Config, *slog.Logger, func() error) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, closeLog := logging.NewWriter(os.Stderr, logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	return cfg, log, closeLog
}

// loadDocument reads path ("-" for stdin) as markdown lines.
func loadDocument(cmd *cobra.Command, path string) (*parser.Document, error) {
	if path == "-" {
		return parser.Load(cmd.InOrStdin(), "stdin.md", parser.Options{})
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := parser.Load(f, path, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
