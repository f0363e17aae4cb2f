package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/papertrans/internal/breaks"
	"github.com/dgallion1/papertrans/internal/chunker"
	"github.com/dgallion1/papertrans/internal/headings"
	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/mdblock"
)

// SplitMode selects how a paper is cut into translation units.
type SplitMode string

const (
	SplitSection SplitMode = "section"
	SplitBudget  SplitMode = "budget"
)

// ParseSplitMode accepts "" as section.
func ParseSplitMode(s string) (SplitMode, error) {
	switch SplitMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SplitSection:
		return SplitSection, nil
	case SplitBudget:
		return SplitBudget, nil
	}
	return "", fmt.Errorf("unknown split mode %q", s)
}

// FailedMarker follows the source text of a batch that could not be
// translated.
const FailedMarker = "[translation failed, source kept]"

// Reporter receives progress from Engine.Run. Job implements it.
type Reporter interface {
	Stage(status JobStatus, phase string)
	Units(total int)
	UnitDone(u UnitResult)
}

type nopReporter struct{}

func (nopReporter) Stage(JobStatus, string) {}
func (nopReporter) Units(int)               {}
func (nopReporter) UnitDone(UnitResult)     {}

// EngineOptions tunes a translation run.
type EngineOptions struct {
	Budget              int // words per translation request
	SplitBy             SplitMode
	Style               llm.Style
	Concurrency         int // units translated in parallel
	TranslateReferences bool
	StripNumbers        bool
	SkipRelevel         bool
	SkipTitles          bool
	Attempts            int // title and layout validation attempts
	Retries             int // attempts per call on retryable errors
	Backoff             func(attempt int) time.Duration
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.Budget <= 0 {
		o.Budget = chunker.DefaultBudget
	}
	if o.SplitBy == "" {
		o.SplitBy = SplitSection
	}
	if o.Style == "" {
		o.Style = llm.StyleBilingual
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 2
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.Retries <= 0 {
		o.Retries = MaxRetries
	}
	if o.Backoff == nil {
		o.Backoff = Backoff
	}
	return o
}

// Engine translates one paper: heading repair, title translation, unit
// translation and assembly.
type Engine struct {
	tr   *llm.Translator
	log  *slog.Logger
	opts EngineOptions
}

func NewEngine(tr *llm.Translator, log *slog.Logger, opts EngineOptions) *Engine {
	return &Engine{tr: tr, log: log, opts: opts.withDefaults()}
}

// UnitResult is the translated text of one unit.
type UnitResult struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	File      string `json:"file"`
	Reference bool   `json:"reference"`
	Batches   int    `json:"batches"`
	Failed    int    `json:"failed"`
	Text      string `json:"-"`
}

// Result is a finished translation.
type Result struct {
	Markdown         string         `json:"-"`
	Units            []UnitResult   `json:"units"`
	Breaks           []breaks.Issue `json:"breaks"`
	Relevelled       bool           `json:"relevelled"`
	TitlesTranslated bool           `json:"titles_translated"`
}

// FailedBatches totals the batches that kept their source text.
func (r *Result) FailedBatches() int {
	n := 0
	for _, u := range r.Units {
		n += u.Failed
	}
	return n
}

// Run translates the document lines. name is used in unit file names.
// Per-batch failures are recorded in the result; only cancellation
// returns an error.
func (e *Engine) Run(ctx context.Context, lines []string, name string, rep Reporter) (*Result, error) {
	if rep == nil {
		rep = nopReporter{}
	}
	blocks := mdblock.Tokenize(lines, mdblock.Options{})
	res := &Result{Breaks: breaks.Check(blocks, lines)}

	if !e.opts.SkipRelevel && headings.NeedsRelevel(blocks) && mdblock.CountKind(blocks, mdblock.KindHeader) > 0 {
		rep.Stage(StatusRelevelling, "relevelling headings")
		out, err := headings.Restructure(ctx, blocks, retryLeveler{e}, headings.Options{Attempts: e.opts.Attempts})
		switch {
		case err == nil:
			blocks = out
			res.Relevelled = true
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			e.log.Warn("heading relevel failed, keeping original levels", "error", err)
		}
	}
	if e.opts.StripNumbers {
		blocks = headings.StripNumbering(blocks)
	}

	// Detected before titles are translated.
	refs := referenceHeaders(blocks)

	if !e.opts.SkipTitles {
		rep.Stage(StatusTitles, "translating titles")
		blocks, res.TitlesTranslated = e.translateTitles(ctx, blocks)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	units := e.split(blocks)
	rep.Units(len(units))
	rep.Stage(StatusTranslating, "translating")

	results := make([]UnitResult, len(units))
	sem := make(chan struct{}, e.opts.Concurrency)
	var wg sync.WaitGroup
	for i, u := range units {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r := e.translateUnit(ctx, i, u, isReferenceUnit(u, refs), name)
			results[i] = r
			rep.UnitDone(r)
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Units = results
	res.Markdown = assemble(res.Breaks, results)
	return res, nil
}

func (e *Engine) split(blocks []mdblock.Block) []chunker.Chunk {
	if e.opts.SplitBy == SplitBudget {
		return chunker.Merge(blocks, chunker.Options{Budget: e.opts.Budget})
	}
	return chunker.Sections(blocks)
}

// retryLeveler retries transient failures of each relevel call.
type retryLeveler struct{ e *Engine }

func (r retryLeveler) Relevel(ctx context.Context, titles []string) ([]string, error) {
	return withRetry(ctx, r.e.opts.Retries, r.e.opts.Backoff, func() ([]string, error) {
		return r.e.tr.Relevel(ctx, titles)
	})
}

// translateTitles replaces every header with its translation when the
// model keeps the number and levels of the titles.
func (e *Engine) translateTitles(ctx context.Context, blocks []mdblock.Block) ([]mdblock.Block, bool) {
	titles := headings.Titles(blocks)
	if len(titles) == 0 {
		return blocks, false
	}
	for attempt := range e.opts.Attempts {
		got, err := withRetry(ctx, e.opts.Retries, e.opts.Backoff, func() ([]string, error) {
			return e.tr.TranslateTitles(ctx, titles)
		})
		if err != nil {
			if ctx.Err() != nil {
				return blocks, false
			}
			e.log.Warn("title translation failed", "attempt", attempt, "error", err)
			continue
		}
		if !headings.SameLevels(titles, got) {
			e.log.Warn("translated titles changed structure", "attempt", attempt, "want", len(titles), "got", len(got))
			continue
		}
		out, err := headings.Replace(blocks, got)
		if err != nil {
			break
		}
		return out, true
	}
	e.log.Warn("keeping original titles")
	return blocks, false
}

var referenceTitles = map[string]bool{
	"references":   true,
	"reference":    true,
	"bibliography": true,
	"参考文献":         true,
}

func isReferenceTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	t = strings.TrimLeft(t, "0123456789. ")
	return referenceTitles[t]
}

// referenceHeaders marks the header blocks that open a references
// section.
func referenceHeaders(blocks []mdblock.Block) []bool {
	out := make([]bool, len(blocks))
	for i, b := range blocks {
		if b.Kind == mdblock.KindHeader {
			out[i] = isReferenceTitle(headings.Plain(b.Content))
		}
	}
	return out
}

// isReferenceUnit reports whether the first header of u opens a
// references section.
func isReferenceUnit(u chunker.Chunk, refs []bool) bool {
	for k, b := range u.Blocks {
		if b.Kind == mdblock.KindHeader {
			return refs[u.Start+k]
		}
	}
	return false
}

// UnitFile names the stored file of a unit.
func UnitFile(index int, title, name string) string {
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("block_%02d_%s_%s.md", index, headings.SafeName(title, 30), headings.SafeName(name, 60))
}

func (e *Engine) translateUnit(ctx context.Context, idx int, u chunker.Chunk, ref bool, name string) UnitResult {
	title := u.Title()
	r := UnitResult{Index: idx, Title: title, File: UnitFile(idx, title, name), Reference: ref}
	log := e.log.With("unit", idx, "title", title)

	var sb strings.Builder
	switch {
	case ref && e.opts.TranslateReferences:
		e.references(ctx, log, u.Blocks, &sb, &r)
	case ref:
		for _, b := range u.Blocks {
			sb.WriteString(withNewline(b.Content))
		}
	default:
		e.body(ctx, log, u.Blocks, &sb, &r)
	}
	r.Text = sb.String()
	log.Info("unit translated", "batches", r.Batches, "failed", r.Failed)
	return r
}

// batcher accumulates paragraphs up to the word budget. A batch is sent
// when the next paragraph would overflow it or when it reaches the budget.
type batcher struct {
	budget int
	blocks []mdblock.Block
	words  int
	send   func([]mdblock.Block)
}

func (b *batcher) add(blk mdblock.Block) {
	w := blk.Words()
	if b.words+w > b.budget && len(b.blocks) > 0 {
		b.flush()
	}
	b.blocks = append(b.blocks, blk)
	b.words += w
	if b.words >= b.budget {
		b.flush()
	}
}

func (b *batcher) flush() {
	if len(b.blocks) == 0 {
		return
	}
	b.send(b.blocks)
	b.blocks = nil
	b.words = 0
}

// body translates the paragraphs of a unit and passes every other block
// through verbatim.
func (e *Engine) body(ctx context.Context, log *slog.Logger, blocks []mdblock.Block, sb *strings.Builder, r *UnitResult) {
	conv := e.tr.NewConversation(e.opts.Style)
	bt := &batcher{budget: e.opts.Budget, send: func(batch []mdblock.Block) {
		e.translateBatch(ctx, log, conv, batch, sb, r)
	}}
	for _, b := range blocks {
		if b.Kind != mdblock.KindParagraph {
			bt.flush()
			sb.WriteString("\n" + strings.TrimRight(b.Content, "\r\n") + "\n\n")
			continue
		}
		bt.add(b)
	}
	bt.flush()
}

func (e *Engine) translateBatch(ctx context.Context, log *slog.Logger, conv *llm.Conversation, batch []mdblock.Block, sb *strings.Builder, r *UnitResult) {
	text := mdblock.Concat(batch)
	r.Batches++

	attempts := 1
	if e.opts.Style == llm.StyleReplace {
		attempts = e.opts.Attempts
	}
	for attempt := range attempts {
		out, err := withRetry(ctx, e.opts.Retries, e.opts.Backoff, func() (string, error) {
			return e.tr.Translate(ctx, conv, text)
		})
		if err != nil {
			log.Error("batch translation failed", "batch", r.Batches, "error", err)
			break
		}
		if e.opts.Style == llm.StyleReplace {
			cand := mdblock.TokenizeString(out, mdblock.Options{})
			if rep := mdblock.Check(batch, cand, nil, nil, mdblock.CheckOptions{}); !rep.OK {
				log.Warn("translation changed block layout", "batch", r.Batches, "attempt", attempt, "mismatch", rep.Mismatch.String())
				conv.Undo()
				continue
			}
		}
		sb.WriteString(out + "\n\n")
		return
	}

	r.Failed++
	sb.WriteString(withNewline(text))
	sb.WriteString(FailedMarker + "\n\n")
}

// references translates bibliography entries in batches. A batch whose
// translation keeps one entry per source entry is written as
// "translation ==> original" lines; otherwise the originals are kept.
func (e *Engine) references(ctx context.Context, log *slog.Logger, blocks []mdblock.Block, sb *strings.Builder, r *UnitResult) {
	bt := &batcher{budget: e.opts.Budget, send: func(batch []mdblock.Block) {
		r.Batches++
		text := mdblock.Concat(batch)
		out, err := withRetry(ctx, e.opts.Retries, e.opts.Backoff, func() (string, error) {
			return e.tr.TranslateReferences(ctx, text)
		})
		if err == nil {
			cand := mdblock.TokenizeString(out, mdblock.Options{})
			if mdblock.Check(batch, cand, nil, nil, mdblock.CheckOptions{}).OK {
				for i := range batch {
					sb.WriteString(strings.TrimRight(cand[i].Content, "\r\n") + " ==> " + withNewline(batch[i].Content))
				}
				return
			}
			log.Warn("reference translation changed entry count", "want", len(batch), "got", len(cand))
		} else {
			log.Error("reference translation failed", "error", err)
		}
		r.Failed++
		sb.WriteString(text)
	}}
	for _, b := range blocks {
		if b.Kind != mdblock.KindParagraph {
			bt.flush()
			sb.WriteString(withNewline(b.Content))
			continue
		}
		bt.add(b)
	}
	bt.flush()
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// assemble writes the line-break report followed by every unit in order.
func assemble(issues []breaks.Issue, units []UnitResult) string {
	var sb strings.Builder
	_ = breaks.Render(&sb, issues)
	sb.WriteString("\n---\n\n")
	for _, u := range units {
		sb.WriteString(u.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
