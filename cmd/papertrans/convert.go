package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papertrans/internal/headings"
	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/mdblock"
)

var (
	convertOutput string

	relevelOutput       string
	relevelStripNumbers bool
	relevelAttempts     int
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a pdf, docx, html, csv or txt file to markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd, args[0])
		if err != nil {
			return err
		}
		if len(doc.Lines) == 0 {
			return fmt.Errorf("%s: no text extracted", args[0])
		}
		return writeOutput(cmd, convertOutput, []byte(strings.Join(doc.Lines, "")))
	},
}

var relevelCmd = &cobra.Command{
	Use:   "relevel [file]",
	Short: "Repair a flattened heading hierarchy with the model",
	Long: `Ask the model to re-level the headings of a paper whose structure has at
most one level-1 heading, so that it can be translated section by section.
A document that already has several level-1 headings is written unchanged.

Requires LLM_API_KEY and LLM_MODEL (see .env).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closeLog := loadConfig()
		defer closeLog()
		if err := cfg.ValidateLLM(); err != nil {
			return err
		}

		doc, err := loadDocument(cmd, inputArg(args))
		if err != nil {
			return err
		}
		blocks := mdblock.Tokenize(doc.Lines, mdblock.Options{KeepEmpty: true})

		if headings.NeedsRelevel(blocks) {
			tr := newTranslator(cfg, llm.NewLLMStats(0))
			log.Info("relevelling headings", "titles", mdblock.CountKind(blocks, mdblock.KindHeader))
			blocks, err = headings.Restructure(cmd.Context(), blocks, tr, headings.Options{
				Attempts:     relevelAttempts,
				StripNumbers: relevelStripNumbers,
			})
			if err != nil {
				return err
			}
		} else {
			log.Info("heading structure already usable", "top_level", headings.TopLevelCount(blocks))
			if relevelStripNumbers {
				blocks = headings.StripNumbering(blocks)
			}
		}
		return writeOutput(cmd, relevelOutput, []byte(mdblock.Concat(blocks)))
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Write markdown to file instead of stdout")

	relevelCmd.Flags().StringVarP(&relevelOutput, "output", "o", "", "Write markdown to file instead of stdout")
	relevelCmd.Flags().BoolVar(&relevelStripNumbers, "strip-numbers", false, "Remove section numbers from headings")
	relevelCmd.Flags().IntVar(&relevelAttempts, "attempts", 3, "Model calls before giving up")
}
