package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ledgerflow/internal/logging"
	"ledgerflow/internal/services"
)

// Source supplies items to the first stage. Next returns io.EOF once the
// input is exhausted; fatal-item errors are recorded as diagnostics and the
// feed continues, while any other error aborts the run.
type Source[T any] interface {
	Next() (T, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc[T any] func() (T, error)

// Next implements Source.
func (f SourceFunc[T]) Next() (T, error) { return f() }

// OrchestratorConfig wires an ordered stage chain to its terminal sink.
type OrchestratorConfig[T any] struct {
	Stages []*Stage[T]
	Sink   *Sink[T]
	// ShutdownGrace bounds the final flush on the deadline path.
	ShutdownGrace time.Duration
	// OnDiagnostic observes fatal-item errors raised by the source. Optional.
	OnDiagnostic func(err error)
	Logger       *slog.Logger
}

// StageSummary pairs a stage name with its disposition counts.
type StageSummary struct {
	Name   string
	Counts StageCounts
}

// Summary reports the outcome of one pipeline run. Per-item failures never
// fail a run; only deadline expiry or a broken source does.
type Summary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	// Submitted counts items fed into the first stage; SourceDropped counts
	// source rows rejected before admission.
	Submitted     int64
	SourceDropped int64

	Stages []StageSummary

	// Flushed is the number of items durably written by the sink; Flushes is
	// the number of batch writes.
	Flushed       int64
	Flushes       int64
	WriteFailures int64

	Success bool
}

// Duration returns the wall-clock span of the run.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Forwarded sums items forwarded across all stages' exits, Fallbacks the
// fallback recoveries, Failed the failure-marked items, Dropped the items
// removed with diagnostics (including rejected source rows).
func (s Summary) Forwarded() int64 { return s.sum(func(c StageCounts) int64 { return c.Forwarded }) }

func (s Summary) Fallbacks() int64 { return s.sum(func(c StageCounts) int64 { return c.Fallbacks }) }

func (s Summary) Failed() int64 { return s.sum(func(c StageCounts) int64 { return c.Failed }) }

func (s Summary) Dropped() int64 {
	return s.SourceDropped + s.sum(func(c StageCounts) int64 { return c.Dropped })
}

func (s Summary) sum(pick func(StageCounts) int64) int64 {
	var total int64
	for _, stage := range s.Stages {
		total += pick(stage.Counts)
	}
	return total
}

// Orchestrator links an ordered list of stages so stage i feeds stage i+1,
// with the buffered sink as the terminal consumer, and coordinates shutdown
// and deadline handling across the chain.
type Orchestrator[T any] struct {
	stages []*Stage[T]
	sink   *Sink[T]
	grace  time.Duration
	onDiag func(error)
	logger *slog.Logger
}

// NewOrchestrator validates the chain and wires each stage's downstream link.
func NewOrchestrator[T any](cfg OrchestratorConfig[T]) (*Orchestrator[T], error) {
	if len(cfg.Stages) == 0 {
		return nil, errors.New("orchestrator: at least one stage is required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("orchestrator: terminal sink is required")
	}
	for i, stage := range cfg.Stages {
		if stage == nil {
			return nil, fmt.Errorf("orchestrator: stage %d is nil", i)
		}
		if i+1 < len(cfg.Stages) {
			stage.next = cfg.Stages[i+1]
		} else {
			stage.next = cfg.Sink
		}
	}
	grace := cfg.ShutdownGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &Orchestrator[T]{
		stages: cfg.Stages,
		sink:   cfg.Sink,
		grace:  grace,
		onDiag: cfg.OnDiagnostic,
		logger: logging.NewComponentLogger(cfg.Logger, "orchestrator"),
	}, nil
}

// Run feeds items from source into the first stage, signals completion once
// the source is exhausted, then waits for the sink to drain or for the
// deadline to elapse, whichever comes first. On deadline expiry the sink gets
// a grace-bounded final flush so already-buffered output is not lost, and Run
// returns a timeout-classified error.
func (o *Orchestrator[T]) Run(ctx context.Context, source Source[T], deadline time.Duration) (Summary, error) {
	summary := Summary{StartedAt: time.Now().UTC()}

	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	o.sink.start(runCtx)
	for i := len(o.stages) - 1; i >= 0; i-- {
		o.stages[i].start(runCtx)
	}

	o.logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.Int("stages", len(o.stages)),
		logging.Duration("deadline", deadline),
	)

	feedErr := o.feed(runCtx, source, &summary)
	o.stages[0].Complete()

	var runErr error
	select {
	case <-o.sink.Done():
		// A drain that raced the deadline still counts as expired: items cut
		// short by cancellation were dropped, not processed.
		if !o.sink.Drained() || runCtx.Err() != nil {
			runErr = o.timeout(ctx, deadline, runCtx.Err())
		}
	case <-runCtx.Done():
		runErr = o.timeout(ctx, deadline, runCtx.Err())
	}

	if runErr == nil && feedErr != nil {
		runErr = feedErr
	}

	o.collect(&summary)
	summary.FinishedAt = time.Now().UTC()
	summary.Success = runErr == nil

	o.logger.Info("pipeline finished",
		logging.String(logging.FieldEventType, "pipeline_finish"),
		logging.Bool("success", summary.Success),
		logging.Int64("submitted", summary.Submitted),
		logging.Int64("flushed", summary.Flushed),
		logging.Int64("fallbacks", summary.Fallbacks()),
		logging.Int64("dropped", summary.Dropped()),
		logging.Duration("elapsed", summary.Duration()),
	)

	return summary, runErr
}

// feed pumps the source into the first stage. Fatal-item source errors are
// diagnostics, not run failures.
func (o *Orchestrator[T]) feed(ctx context.Context, source Source[T], summary *Summary) error {
	for {
		item, err := source.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if services.IsFatalItem(err) {
				summary.SourceDropped++
				o.logger.Error("source row rejected",
					logging.String(logging.FieldEventType, "source_row_rejected"),
					logging.Error(err),
				)
				if o.onDiag != nil {
					o.onDiag(err)
				}
				continue
			}
			return fmt.Errorf("read source: %w", err)
		}
		if err := o.stages[0].Submit(ctx, item); err != nil {
			// Deadline expired while blocked on a full queue; the select in
			// Run reports the timeout.
			return nil
		}
		summary.Submitted++
	}
}

// timeout performs the grace-bounded final flush and builds the run error.
// The flush runs on a context detached from the expired deadline so buffered
// output still reaches the artifact.
func (o *Orchestrator[T]) timeout(ctx context.Context, deadline time.Duration, cause error) error {
	graceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.grace)
	defer cancel()
	o.sink.FinalFlush(graceCtx)
	detail := fmt.Sprintf("deadline %s elapsed before drain", deadline)
	if errors.Is(cause, context.Canceled) {
		detail = "run cancelled before drain"
	}
	return services.Wrap(services.ErrTimeout, "pipeline", "run", detail, cause)
}

func (o *Orchestrator[T]) collect(summary *Summary) {
	for _, stage := range o.stages {
		summary.Stages = append(summary.Stages, StageSummary{Name: stage.Name(), Counts: stage.Counts()})
	}
	summary.Flushed = o.sink.Written()
	summary.Flushes = o.sink.Flushes()
	summary.WriteFailures = o.sink.WriteFailures()
}
