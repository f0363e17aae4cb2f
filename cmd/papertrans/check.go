package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papertrans/internal/breaks"
	"github.com/dgallion1/papertrans/internal/mdblock"
)

var errStructureMismatch = errors.New("block structure differs")

var (
	checkSkipYAML bool
	breaksRaw     bool
)

var checkCmd = &cobra.Command{
	Use:   "check <reference> <candidate>",
	Short: "Verify a translation keeps the block structure of its source",
	Long: `Tokenize both files and compare their block kinds in order. Content is
never compared. Exits non-zero when the structures differ and prints the
first mismatch with a diff of the kind sequences.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := loadDocument(cmd, args[0])
		if err != nil {
			return err
		}
		cand, err := loadDocument(cmd, args[1])
		if err != nil {
			return err
		}
		refBlocks := mdblock.Tokenize(ref.Lines, mdblock.Options{})
		candBlocks := mdblock.Tokenize(cand.Lines, mdblock.Options{})
		rep := mdblock.Check(refBlocks, candBlocks, ref.Lines, cand.Lines, mdblock.CheckOptions{SkipYAML: checkSkipYAML})

		w := cmd.OutOrStdout()
		if jsonOutput {
			if err := writeJSON(w, rep); err != nil {
				return err
			}
		} else if rep.OK {
			fmt.Fprintf(w, "%s %d blocks match\n", goodStyle.Render("OK"), rep.ReferenceBlocks)
		} else {
			m := rep.Mismatch
			fmt.Fprintf(w, "%s at block %d: %s (%s:%d) vs %s (%s:%d)\n",
				badStyle.Render("MISMATCH"), m.Index,
				kindStyle.Render(m.ReferenceKind.String()), args[0], m.ReferenceLine,
				kindStyle.Render(m.CandidateKind.String()), args[1], m.CandidateLine)
			fmt.Fprintf(w, "%s reference %d blocks, candidate %d blocks\n\n",
				dimStyle.Render("counts:"), rep.ReferenceBlocks, rep.CandidateBlocks)
			fmt.Fprint(w, colorDiff(mdblock.KindDiff(refBlocks, candBlocks)))
		}
		if !rep.OK {
			return errStructureMismatch
		}
		return nil
	},
}

var breaksCmd = &cobra.Command{
	Use:   "breaks [file]",
	Short: "Find paragraphs with suspicious OCR line breaks",
	Long: `Report body paragraphs that start mid-sentence or end without terminal
punctuation, and reference entries that do not start with a citation
marker. Use --raw for the markdown report placed in translated output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, inputArg(args))
		if err != nil {
			return err
		}
		issues := breaks.Check(mdblock.Tokenize(doc.Lines, mdblock.Options{}), doc.Lines)

		w := cmd.OutOrStdout()
		switch {
		case jsonOutput:
			if issues == nil {
				issues = []breaks.Issue{}
			}
			return writeJSON(w, issues)
		case breaksRaw:
			return breaks.Render(w, issues)
		}

		if len(issues) == 0 {
			fmt.Fprintln(w, goodStyle.Render("No abnormal line breaks found."))
			return nil
		}
		for _, is := range issues {
			var why []string
			if is.BadStart {
				why = append(why, "bad start")
			}
			if is.BadEnd {
				why = append(why, "bad end")
			}
			if is.Reference {
				why = append(why, "bad reference format")
			}
			fmt.Fprintf(w, "%s %s\n    %s\n",
				dimStyle.Render(fmt.Sprintf("line %5d", is.Line)),
				badStyle.Render(strings.Join(why, ", ")),
				markEdges(preview(is.Content, 200), is.BadStart || is.Reference, is.BadEnd))
		}
		fmt.Fprintf(w, "\n%d paragraphs to review\n", len(issues))
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkSkipYAML, "skip-yaml", false, "Ignore yaml blocks on both sides")
	breaksCmd.Flags().BoolVar(&breaksRaw, "raw", false, "Print the markdown report")
}
