package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papertrans/internal/config"
	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/pipeline"
	"github.com/dgallion1/papertrans/internal/store"
)

var (
	translateOutput      string
	translateUnitsDir    string
	translateStyle       string
	translateSplitBy     string
	translateBudget      int
	translateLanguage    string
	translateConcurrency int
	translateReferences  bool
	translateStripNums   bool
	translateNoRelevel   bool
	translateNoTitles    bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <file>",
	Short: "Translate a paper with an OpenAI-compatible model",
	Long: `Translate a paper unit by unit. Headings are re-levelled when the paper
has at most one level-1 heading, titles are translated in one call, and the
body is translated in batches of at most --budget words per request.

Styles:
  bilingual  each source sentence followed by its translation (default)
  replace    translation only; the block structure is verified per batch

The output starts with a line-break report. It is written next to the input
as <name>.<style>.md unless -o is given ("-" for stdout).

Flags override TARGET_LANGUAGE, TRANSLATION_STYLE, SPLIT_BY,
TRANSLATION_BUDGET, LLM_MAX_CONCURRENT, TRANSLATE_REFERENCES and
STRIP_HEADING_NUMBERS.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	f := translateCmd.Flags()
	f.StringVarP(&translateOutput, "output", "o", "", `Output file ("-" for stdout)`)
	f.StringVar(&translateUnitsDir, "units-dir", "", "Also write each translated unit to this directory")
	f.StringVarP(&translateStyle, "style", "s", "", "Translation style: bilingual or replace")
	f.StringVar(&translateSplitBy, "split-by", "", "Unit split: section or budget")
	f.IntVarP(&translateBudget, "budget", "b", 0, "Words per translation request")
	f.StringVarP(&translateLanguage, "language", "l", "", "Target language")
	f.IntVarP(&translateConcurrency, "concurrency", "c", 0, "Units translated in parallel")
	f.BoolVar(&translateReferences, "references", false, "Translate the bibliography too")
	f.BoolVar(&translateStripNums, "strip-numbers", false, "Remove section numbers from headings")
	f.BoolVar(&translateNoRelevel, "no-relevel", false, "Keep heading levels as they are")
	f.BoolVar(&translateNoTitles, "no-titles", false, "Keep headings untranslated")

	translateCmd.RegisterFlagCompletionFunc("style", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"bilingual", "replace"}, cobra.ShellCompDirectiveNoFileComp
	})
	translateCmd.RegisterFlagCompletionFunc("split-by", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"section", "budget"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, log, closeLog := loadConfig()
	defer closeLog()
	applyTranslateFlags(cmd, &cfg)
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}
	style, err := llm.ParseStyle(cfg.Style)
	if err != nil {
		return err
	}
	split, err := pipeline.ParseSplitMode(cfg.SplitBy)
	if err != nil {
		return err
	}

	path := args[0]
	doc, err := loadDocument(cmd, path)
	if err != nil {
		return err
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%s: nothing to translate", path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := llm.NewLLMStats(0)
	engine := pipeline.NewEngine(newTranslator(cfg, stats), log, pipeline.EngineOptions{
		Budget:              cfg.Budget,
		SplitBy:             split,
		Style:               style,
		Concurrency:         cfg.LLMConcurrent,
		TranslateReferences: cfg.TranslateReferences,
		StripNumbers:        cfg.StripNumbers,
		SkipRelevel:         translateNoRelevel,
		SkipTitles:          translateNoTitles,
	})

	name := documentName(path)
	prog := &progress{w: cmd.ErrOrStderr()}
	res, err := engine.Run(ctx, doc.Lines, name, prog)
	if err != nil {
		return err
	}

	if translateUnitsDir != "" {
		units, err := store.NewLocal(translateUnitsDir)
		if err != nil {
			return err
		}
		for _, u := range res.Units {
			if err := units.Put(ctx, u.File, []byte(u.Text), "text/markdown"); err != nil {
				return fmt.Errorf("write unit %s: %w", u.File, err)
			}
		}
	}

	out := translateOutput
	if out == "" {
		out = filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.%s.md", name, style))
	}
	if out == "-" {
		out = ""
	}
	if err := writeOutput(cmd, out, []byte(res.Markdown)); err != nil {
		return err
	}

	snap := stats.Snapshot()
	w := cmd.ErrOrStderr()
	status := goodStyle.Render("done")
	if n := res.FailedBatches(); n > 0 {
		status = badStyle.Render(fmt.Sprintf("%d batches kept their source", n))
	}
	fmt.Fprintf(w, "%s  %d units, %d line-break issues, %d calls, %d+%d tokens\n",
		status, len(res.Units), len(res.Breaks), snap.Count, snap.PromptTokens, snap.CompletionTokens)
	if out != "" {
		fmt.Fprintf(w, "wrote %s\n", out)
	}
	return nil
}

func applyTranslateFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("style") {
		cfg.Style = translateStyle
	}
	if f.Changed("split-by") {
		cfg.SplitBy = translateSplitBy
	}
	if f.Changed("budget") {
		cfg.Budget = translateBudget
	}
	if f.Changed("language") {
		cfg.TargetLanguage = translateLanguage
	}
	if f.Changed("concurrency") {
		cfg.LLMConcurrent = translateConcurrency
	}
	if f.Changed("references") {
		cfg.TranslateReferences = translateReferences
	}
	if f.Changed("strip-numbers") {
		cfg.StripNumbers = translateStripNums
	}
}

func newTranslator(cfg config.Config, stats *llm.LLMStats) *llm.Translator {
	client := llm.NewClient(llm.ClientConfig{
		APIKey:    cfg.LLMAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}, stats)
	return llm.NewTranslator(client, llm.TranslatorOptions{
		Language: cfg.TargetLanguage,
		MaxTurns: cfg.HistoryTurns,
	})
}

func documentName(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// progress prints engine progress to stderr.
type progress struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	done  int
}

func (p *progress) Stage(_ pipeline.JobStatus, phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, dimStyle.Render(phase+"..."))
}

func (p *progress) Units(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

func (p *progress) UnitDone(u pipeline.UnitResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	mark := goodStyle.Render("✓")
	if u.Failed > 0 {
		mark = badStyle.Render("!")
	}
	title := u.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(p.w, "  %s [%d/%d] %s\n", mark, p.done, p.total, preview(title, 60))
}
