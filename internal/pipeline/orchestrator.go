package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oasara/enrich-cli/internal/config"
	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/internal/store"
)

// Runner enriches one facility. Satisfied by *Pipeline; tests swap in
// a stub.
type Runner interface {
	Run(ctx context.Context, facility model.Facility) *model.RunResult
}

// BatchOptions narrows which facilities a batch covers.
type BatchOptions struct {
	Country string
	Limit   int
	Resume  bool
}

// Orchestrator drives a batch of facilities through the pipeline with
// a bounded worker pool, periodic checkpoints, and per-facility
// cooldowns.
type Orchestrator struct {
	store        store.Store
	runner       Runner
	checkpointer *Checkpointer

	concurrency     int
	cooldown        time.Duration
	checkpointEvery int
}

// NewOrchestrator creates an orchestrator from batch settings.
// Concurrency is clamped to [1, 5]: below one is nonsense, above five
// starts tripping bot detection on the destination sites.
func NewOrchestrator(st store.Store, runner Runner, cp *Checkpointer, cfg config.BatchConfig) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 5 {
		concurrency = 5
	}
	checkpointEvery := cfg.CheckpointEvery
	if checkpointEvery <= 0 {
		checkpointEvery = 5
	}
	return &Orchestrator{
		store:           st,
		runner:          runner,
		checkpointer:    cp,
		concurrency:     concurrency,
		cooldown:        time.Duration(cfg.CooldownSecs) * time.Second,
		checkpointEvery: checkpointEvery,
	}
}

// RunBatch enriches every matching facility and returns the final
// report. Cancellation lets in-flight facilities finish or abort, then
// flushes a last checkpoint.
func (o *Orchestrator) RunBatch(ctx context.Context, opts BatchOptions) (*model.BatchReport, error) {
	facilities, err := o.store.ListFacilities(ctx, store.FacilityFilter{
		Country: opts.Country,
		Limit:   opts.Limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: list facilities")
	}

	report := &model.BatchReport{StartedAt: time.Now().UTC().Format(time.RFC3339)}
	if opts.Resume {
		prev, err := o.checkpointer.LoadLatest()
		if err != nil {
			return nil, err
		}
		if prev != nil {
			report = prev
		}
	}
	processed := report.ProcessedIDs()
	priorElapsed := report.ElapsedSecs

	queue := make([]model.Facility, 0, len(facilities))
	for _, f := range facilities {
		if _, done := processed[f.ID]; done {
			continue
		}
		queue = append(queue, f)
	}

	zap.L().Info("orchestrator: batch starting",
		zap.Int("facilities", len(queue)),
		zap.Int("skipped", len(facilities)-len(queue)),
		zap.Int("concurrency", o.concurrency),
	)

	start := time.Now()
	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, facility := range queue {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result := o.runner.Run(gctx, facility)

			mu.Lock()
			report.Add(*result)
			completed++
			if completed%o.checkpointEvery == 0 {
				report.ElapsedSecs = priorElapsed + time.Since(start).Seconds()
				o.checkpointer.Save(report)
			}
			mu.Unlock()

			o.sleep(gctx)
			return nil
		})
	}

	err = g.Wait()

	mu.Lock()
	report.ElapsedSecs = priorElapsed + time.Since(start).Seconds()
	o.checkpointer.Save(report)
	mu.Unlock()

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	zap.L().Info("orchestrator: batch finished",
		zap.Int("processed", report.Processed()),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("partial", report.Partial),
		zap.Int("failed", report.Failed),
	)
	return report, err
}

// sleep pauses between facilities so batches drip rather than burst.
func (o *Orchestrator) sleep(ctx context.Context) {
	if o.cooldown <= 0 {
		return
	}
	timer := time.NewTimer(o.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
