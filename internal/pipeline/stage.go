package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"ledgerflow/internal/logging"
)

// Defaults applied by NewStage when the config leaves them zero.
const (
	DefaultQueueCapacity = 100
	DefaultWorkers       = 4
)

// Transform applies a stage's work to one item.
type Transform[T any] func(ctx context.Context, item T) Result[T]

// Fallback recovers an item after a transient transform failure. It runs in
// the same worker that ran the transform; a Fail result from the fallback
// sends the item down the failure-marked path.
type Fallback[T any] func(ctx context.Context, item T, cause error) Result[T]

// downstream is the link a stage uses to hand items forward. Both Stage and
// Sink satisfy it.
type downstream[T any] interface {
	Submit(ctx context.Context, item T) error
	Complete()
}

// StageConfig describes one stage of the pipeline.
type StageConfig[T any] struct {
	Name          string
	QueueCapacity int
	Workers       int
	Transform     Transform[T]
	Fallback      Fallback[T]
	// MarkFailed tags an item as failed so it still reaches the sink when
	// both the transform and the fallback give up. When nil, unrecovered
	// items are dropped instead of forwarded.
	MarkFailed func(item T, cause error) T
	Logger     *slog.Logger
}

// StageCounts is a snapshot of a stage's per-item dispositions.
type StageCounts struct {
	Forwarded int64
	Fallbacks int64
	Failed    int64
	Skipped   int64
	Dropped   int64
}

// Stage pulls items from its bounded queue and applies one transform under a
// fixed-size worker pool, isolating item-level failures from the rest of the
// pipeline.
type Stage[T any] struct {
	name       string
	in         chan T
	workers    int
	transform  Transform[T]
	fallback   Fallback[T]
	markFailed func(T, error) T
	logger     *slog.Logger

	next downstream[T]

	completeOnce sync.Once
	done         chan struct{}
	cancelled    atomic.Bool

	forwarded atomic.Int64
	fallbacks atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	dropped   atomic.Int64
}

// NewStage validates the config and builds an unstarted stage. The
// orchestrator wires its downstream link and starts it.
func NewStage[T any](cfg StageConfig[T]) (*Stage[T], error) {
	if cfg.Name == "" {
		return nil, errors.New("stage: name is required")
	}
	if cfg.Transform == nil {
		return nil, fmt.Errorf("stage %s: transform is required", cfg.Name)
	}
	if cfg.QueueCapacity < 0 || cfg.Workers < 0 {
		return nil, fmt.Errorf("stage %s: negative capacity or workers", cfg.Name)
	}
	capacity := cfg.QueueCapacity
	if capacity == 0 {
		capacity = DefaultQueueCapacity
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	return &Stage[T]{
		name:       cfg.Name,
		in:         make(chan T, capacity),
		workers:    workers,
		transform:  cfg.Transform,
		fallback:   cfg.Fallback,
		markFailed: cfg.MarkFailed,
		logger:     logging.NewComponentLogger(cfg.Logger, "stage."+cfg.Name),
		done:       make(chan struct{}),
	}, nil
}

// Name returns the stage name used in logs and summaries.
func (s *Stage[T]) Name() string { return s.name }

// Submit places an item on the stage's queue, blocking while the queue is
// full. It returns the context error when cancelled.
func (s *Stage[T]) Submit(ctx context.Context, item T) error {
	select {
	case s.in <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Complete signals that no more items will be submitted. Safe to call more
// than once. The stage drains queued and in-flight items before propagating
// completion downstream.
func (s *Stage[T]) Complete() {
	s.completeOnce.Do(func() { close(s.in) })
}

// Done resolves once the stage has drained and propagated completion.
func (s *Stage[T]) Done() <-chan struct{} { return s.done }

// Cancelled reports whether the stage stopped because of cancellation rather
// than a full drain.
func (s *Stage[T]) Cancelled() bool { return s.cancelled.Load() }

// Counts returns a snapshot of the stage's per-item dispositions.
func (s *Stage[T]) Counts() StageCounts {
	return StageCounts{
		Forwarded: s.forwarded.Load(),
		Fallbacks: s.fallbacks.Load(),
		Failed:    s.failed.Load(),
		Skipped:   s.skipped.Load(),
		Dropped:   s.dropped.Load(),
	}
}

// start launches the worker pool. Completion is propagated downstream only
// after every worker has exited, so the downstream link closes exactly once
// all upstream in-flight items have been delivered.
func (s *Stage[T]) start(ctx context.Context) {
	go func() {
		var wg sync.WaitGroup
		wg.Add(s.workers)
		for i := 0; i < s.workers; i++ {
			go s.worker(ctx, &wg)
		}
		wg.Wait()
		if s.next != nil {
			s.next.Complete()
		}
		close(s.done)
	}()
}

func (s *Stage[T]) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case item, ok := <-s.in:
			if !ok {
				return
			}
			s.process(ctx, item)
		case <-ctx.Done():
			// Stop admitting queued work; in-flight transforms in other
			// workers observe the same context and wind down on their own.
			s.cancelled.Store(true)
			return
		}
	}
}

func (s *Stage[T]) process(ctx context.Context, item T) {
	result := s.transform(ctx, item)
	switch result.kind {
	case resultOk:
		s.forward(ctx, result.item)
	case resultSkip:
		s.skipped.Add(1)
		s.logger.Debug("item skipped")
	case resultFail:
		s.recover(ctx, item, result.err)
	case resultFatal:
		s.drop(result.err)
	}
}

// recover drives the transient-failure path: fallback first, then the
// failure-marked forward so one bad enrichment never removes an item from
// the pipeline.
func (s *Stage[T]) recover(ctx context.Context, item T, cause error) {
	if s.fallback != nil {
		result := s.fallback(ctx, item, cause)
		switch result.kind {
		case resultOk:
			s.fallbacks.Add(1)
			s.logger.Info("fallback applied",
				logging.String(logging.FieldEventType, "stage_fallback"),
				logging.Error(cause),
			)
			s.forward(ctx, result.item)
			return
		case resultSkip:
			s.skipped.Add(1)
			return
		case resultFatal:
			s.drop(result.err)
			return
		case resultFail:
			cause = result.err
		}
	}

	if s.markFailed == nil {
		s.drop(cause)
		return
	}
	s.failed.Add(1)
	s.logger.Warn("item failed, forwarding",
		logging.String(logging.FieldEventType, "stage_item_failed"),
		logging.Error(cause),
	)
	s.forward(ctx, s.markFailed(item, cause))
}

func (s *Stage[T]) forward(ctx context.Context, item T) {
	if s.next == nil {
		s.forwarded.Add(1)
		return
	}
	if err := s.next.Submit(ctx, item); err != nil {
		// Cancellation between transform and hand-off; the deadline path
		// already accounts for abandoned in-flight work.
		s.dropped.Add(1)
		s.logger.Debug("hand-off abandoned", logging.Error(err))
		return
	}
	s.forwarded.Add(1)
	s.logger.Debug("item forwarded", logging.String(logging.FieldEventType, "stage_forward"))
}

func (s *Stage[T]) drop(cause error) {
	s.dropped.Add(1)
	s.logger.Error("item dropped",
		logging.String(logging.FieldEventType, "stage_item_dropped"),
		logging.Error(cause),
	)
}
