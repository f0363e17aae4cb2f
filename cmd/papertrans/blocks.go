package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papertrans/internal/chunker"
	"github.com/dgallion1/papertrans/internal/mdblock"
	"github.com/dgallion1/papertrans/internal/parser"
)

var (
	segmentKeepEmpty bool

	chunksBudget        int
	chunksTopLevelOnly  bool
	chunksIgnoreHeaders bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "List the structural blocks of a document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, inputArg(args))
		if err != nil {
			return err
		}
		blocks := mdblock.Tokenize(doc.Lines, mdblock.Options{KeepEmpty: segmentKeepEmpty})
		pos := mdblock.LocateLines(doc.Lines, blocks)

		if jsonOutput {
			type row struct {
				Index   int          `json:"index"`
				Kind    mdblock.Kind `json:"kind"`
				Level   int          `json:"level,omitempty"`
				Line    int          `json:"line"`
				Content string       `json:"content"`
			}
			rows := make([]row, len(blocks))
			for i, b := range blocks {
				rows[i] = row{Index: i, Kind: b.Kind, Level: b.Level(), Line: pos[i], Content: b.Content}
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		}

		w := cmd.OutOrStdout()
		for i, b := range blocks {
			fmt.Fprintf(w, "%4d %s %s %s\n", i,
				dimStyle.Render(fmt.Sprintf("L%-5d", pos[i])),
				kindStyle.Render(fmt.Sprintf("%-14s", b.Kind)),
				preview(b.Content, 72))
		}
		return nil
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections [file]",
	Short: "Split a document at every top-level heading",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, inputArg(args))
		if err != nil {
			return err
		}
		blocks := mdblock.Tokenize(doc.Lines, mdblock.Options{})
		return printChunks(cmd, chunker.Sections(blocks))
	},
}

var chunksCmd = &cobra.Command{
	Use:   "chunks [file]",
	Short: "Merge blocks into chunks bounded by a word budget",
	Long: `Merge blocks into chunks of at most --budget words. Chunks end at
headings where possible; a single block larger than the budget forms a
chunk of its own.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chunksBudget <= 0 {
			return fmt.Errorf("--budget must be positive")
		}
		doc, err := loadDocument(cmd, inputArg(args))
		if err != nil {
			return err
		}
		blocks := mdblock.Tokenize(doc.Lines, mdblock.Options{})
		return printChunks(cmd, chunker.Merge(blocks, chunker.Options{
			Budget:        chunksBudget,
			TopLevelOnly:  chunksTopLevelOnly,
			IgnoreHeaders: chunksIgnoreHeaders,
		}))
	},
}

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the heading outline of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: true})
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		tree, err := p.Parse(f, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		heads := tree.Headings()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"title": tree.Title, "headings": heads})
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, titleStyle.Render(tree.Title))
		for _, h := range heads {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", h.Depth-1), h.Title)
		}
		return nil
	},
}

func printChunks(cmd *cobra.Command, chunks []chunker.Chunk) error {
	if jsonOutput {
		type row struct {
			Index int    `json:"index"`
			Start int    `json:"start"`
			End   int    `json:"end"`
			Words int    `json:"words"`
			Title string `json:"title"`
		}
		rows := make([]row, len(chunks))
		for i, c := range chunks {
			rows[i] = row{Index: c.Index, Start: c.Start, End: c.End, Words: c.Words, Title: c.Title()}
		}
		return writeJSON(cmd.OutOrStdout(), rows)
	}

	w := cmd.OutOrStdout()
	for _, c := range chunks {
		title := c.Title()
		if title == "" {
			title = dimStyle.Render("(untitled)")
		}
		fmt.Fprintf(w, "%3d  blocks %4d-%-4d %s  %s\n", c.Index, c.Start, c.End,
			kindStyle.Render(fmt.Sprintf("%6d words", c.Words)), title)
	}
	return nil
}

func init() {
	segmentCmd.Flags().BoolVar(&segmentKeepEmpty, "keep-empty", false, "Emit blank lines as empty_line blocks")

	chunksCmd.Flags().IntVarP(&chunksBudget, "budget", "b", chunker.DefaultBudget, "Maximum words per chunk")
	chunksCmd.Flags().BoolVar(&chunksTopLevelOnly, "top-level-only", false, "Only end chunks at level-1 headings")
	chunksCmd.Flags().BoolVar(&chunksIgnoreHeaders, "ignore-headers", false, "Pack blocks by budget alone")
}
