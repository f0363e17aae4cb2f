package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/parser"
	"github.com/dgallion1/papertrans/internal/store"
)

// EngineFactory builds the engine for one job's settings.
type EngineFactory func(Settings) *Engine

// Worker processes a single translation job.
type Worker struct {
	engines   EngineFactory
	store     store.Store
	log       *slog.Logger
	parseOpts parser.Options
}

func NewWorker(engines EngineFactory, st store.Store, log *slog.Logger, parseOpts parser.Options) *Worker {
	return &Worker{
		engines:   engines,
		store:     st,
		log:       log,
		parseOpts: parseOpts,
	}
}

const markdownType = "text/markdown; charset=utf-8"

// Process runs the full translation pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	doc, err := parser.Load(bytes.NewReader(job.FileData()), job.Filename, w.parseOpts)
	job.releaseFileData()
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}
	job.setTitle(doc.Title)
	if len(doc.Lines) == 0 {
		job.AddError("no translatable content")
		job.SetStatus(StatusFailed, "loading")
		return
	}

	// Phase 1.5: Dedup check
	hash := ContentHashHex([]byte(strings.Join(doc.Lines, "")))
	style := job.Settings.Style
	if style == "" {
		style = llm.StyleBilingual
	}
	key := store.ResultKey(hash, string(style))
	job.SetResult(hash, "")
	if !job.Settings.Force {
		exists, err := w.store.Exists(ctx, key)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if exists {
			log.Info("result already stored, skipping", "result_key", key)
			job.SetResult(hash, key)
			job.SetStatus(StatusDupCompleted, "dedup")
			return
		}
	}

	// Phase 2: Translate
	res, err := w.engines(job.Settings).Run(ctx, doc.Lines, documentName(job.Filename), job)
	if err != nil {
		log.Error("translation aborted", "error", err)
		job.AddError(fmt.Sprintf("translate: %s", err))
		job.SetStatus(StatusFailed, "translating")
		return
	}
	job.SetBreakIssues(len(res.Breaks))
	log.Info("translation complete",
		"units", len(res.Units),
		"failed_batches", res.FailedBatches(),
		"break_issues", len(res.Breaks),
		"relevelled", res.Relevelled,
	)

	// Phase 3: Store units and the assembled result.
	job.SetStatus(StatusStoring, "storing")
	for _, u := range res.Units {
		if err := w.store.Put(ctx, store.UnitKey(job.ID, u.File), []byte(u.Text), markdownType); err != nil {
			log.Warn("unit write failed", "file", u.File, "error", err)
		}
	}
	if err := w.store.Put(ctx, key, []byte(res.Markdown), markdownType); err != nil {
		log.Error("result write failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	job.SetResult(hash, key)

	if failed := res.FailedBatches(); failed > 0 {
		job.AddError(fmt.Sprintf("%d batches kept their source text", failed))
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}

// Result returns the stored translation of a finished job.
func (w *Worker) Result(ctx context.Context, job *Job) ([]byte, error) {
	snap := job.Snapshot()
	if !snap.Status.HasResult() || snap.ResultKey == "" {
		return nil, fmt.Errorf("job %s has no result (status %s): %w", snap.ID, snap.Status, store.ErrNotFound)
	}
	data, err := w.store.Get(ctx, snap.ResultKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("result of job %s expired: %w", snap.ID, err)
	}
	return data, err
}

// documentName is the file name without directory or extension.
func documentName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
