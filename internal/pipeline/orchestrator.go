package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgallion1/papertrans/internal/config"
	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/parser"
	"github.com/dgallion1/papertrans/internal/store"
)

// ErrQueueFull is returned by Submit when no worker can take the job.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator manages the translation job queue.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the worker from the configuration. Start launches
// the workers.
func NewOrchestrator(cfg config.Config, tr *llm.Translator, st store.Store, log *slog.Logger) *Orchestrator {
	engines := func(s Settings) *Engine {
		return NewEngine(tr, log, EngineOptions{
			Budget:              s.Budget,
			SplitBy:             s.SplitBy,
			Style:               s.Style,
			Concurrency:         cfg.LLMConcurrent,
			TranslateReferences: cfg.TranslateReferences,
			StripNumbers:        cfg.StripNumbers,
		})
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: NewWorker(engines, st, log, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}),
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
					// Restart the TTL so finished jobs stay visible.
					o.jobs.Put(job)
				}
			}
		}()
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Result returns the stored translation of a finished job.
func (o *Orchestrator) Result(ctx context.Context, job *Job) ([]byte, error) {
	return o.worker.Result(ctx, job)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Settings returns the job settings implied by the configuration.
func (o *Orchestrator) Settings() Settings {
	split, err := ParseSplitMode(o.cfg.SplitBy)
	if err != nil {
		split = SplitSection
	}
	style, err := llm.ParseStyle(o.cfg.Style)
	if err != nil {
		style = llm.StyleBilingual
	}
	return Settings{Style: style, SplitBy: split, Budget: o.cfg.Budget}
}
