package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ledgerflow/internal/logging"
)

// Sink defaults applied by NewSink when the config leaves them zero.
const (
	DefaultBufferSize    = 100
	DefaultFlushInterval = 30 * time.Second
)

// Writer persists one batch. A write must be atomic: after an error the
// output artifact looks exactly as it did before the attempt.
type Writer[T any] func(ctx context.Context, batch []T) error

// SinkConfig describes the terminal buffered stage.
type SinkConfig[T any] struct {
	Name          string
	QueueCapacity int
	// BufferSize triggers a flush once this many items are buffered.
	BufferSize int
	// FlushInterval triggers a flush of a non-empty buffer on a timer.
	FlushInterval time.Duration
	Write         Writer[T]
	Logger        *slog.Logger
}

// Sink is the terminal pipeline stage. Instead of forwarding items it
// accumulates them and flushes batches on a size-or-time trigger, amortizing
// the cost of the write operation.
type Sink[T any] struct {
	name      string
	in        chan T
	threshold int
	interval  time.Duration
	write     Writer[T]
	logger    *slog.Logger

	mu  sync.Mutex
	buf []T

	// flushMu serializes flush execution so a timer trigger can never race a
	// size trigger or the final flush; a trigger arriving mid-flush is
	// coalesced into the next one.
	flushMu sync.Mutex

	completeOnce sync.Once
	done         chan struct{}
	drained      atomic.Bool

	received      atomic.Int64
	written       atomic.Int64
	flushes       atomic.Int64
	writeFailures atomic.Int64
}

// NewSink validates the config and builds an unstarted sink.
func NewSink[T any](cfg SinkConfig[T]) (*Sink[T], error) {
	if cfg.Name == "" {
		return nil, errors.New("sink: name is required")
	}
	if cfg.Write == nil {
		return nil, fmt.Errorf("sink %s: writer is required", cfg.Name)
	}
	if cfg.QueueCapacity < 0 || cfg.BufferSize < 0 || cfg.FlushInterval < 0 {
		return nil, fmt.Errorf("sink %s: negative tuning value", cfg.Name)
	}
	capacity := cfg.QueueCapacity
	if capacity == 0 {
		capacity = DefaultQueueCapacity
	}
	threshold := cfg.BufferSize
	if threshold == 0 {
		threshold = DefaultBufferSize
	}
	interval := cfg.FlushInterval
	if interval == 0 {
		interval = DefaultFlushInterval
	}
	return &Sink[T]{
		name:      cfg.Name,
		in:        make(chan T, capacity),
		threshold: threshold,
		interval:  interval,
		write:     cfg.Write,
		logger:    logging.NewComponentLogger(cfg.Logger, "sink."+cfg.Name),
		done:      make(chan struct{}),
		buf:       make([]T, 0, threshold),
	}, nil
}

// Name returns the sink name used in logs and summaries.
func (s *Sink[T]) Name() string { return s.name }

// Submit places an item on the sink's intake queue, blocking while the queue
// is full.
func (s *Sink[T]) Submit(ctx context.Context, item T) error {
	select {
	case s.in <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Complete signals that no more items will be submitted. Safe to call more
// than once.
func (s *Sink[T]) Complete() {
	s.completeOnce.Do(func() { close(s.in) })
}

// Done resolves once the sink has drained its intake and performed its final
// flush (orderly path) or stopped due to cancellation.
func (s *Sink[T]) Done() <-chan struct{} { return s.done }

// Drained reports whether the sink consumed its whole intake before Done.
func (s *Sink[T]) Drained() bool { return s.drained.Load() }

// Written returns the number of items durably flushed so far.
func (s *Sink[T]) Written() int64 { return s.written.Load() }

// Flushes returns the number of successful batch writes so far.
func (s *Sink[T]) Flushes() int64 { return s.flushes.Load() }

// WriteFailures returns the number of failed batch writes.
func (s *Sink[T]) WriteFailures() int64 { return s.writeFailures.Load() }

// start launches the intake loop: items join the buffer, a full buffer or a
// timer tick triggers a flush, and drain completion triggers the final flush.
func (s *Sink[T]) start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		defer close(s.done)
		for {
			select {
			case item, ok := <-s.in:
				if !ok {
					s.drained.Store(true)
					s.FinalFlush(ctx)
					return
				}
				s.received.Add(1)
				if s.buffer(item) >= s.threshold {
					s.flush(ctx, "size")
				}
			case <-ticker.C:
				s.flush(ctx, "interval")
			case <-ctx.Done():
				// Deadline path: the orchestrator owns the final flush so it
				// can bound it with the shutdown grace period.
				return
			}
		}
	}()
}

func (s *Sink[T]) buffer(item T) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, item)
	return len(s.buf)
}

// FinalFlush writes any remaining buffered items. It is idempotent: once the
// buffer is empty, further calls write nothing.
func (s *Sink[T]) FinalFlush(ctx context.Context) {
	s.flush(ctx, "final")
}

func (s *Sink[T]) flush(ctx context.Context, trigger string) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if len(s.buf) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buf
	s.buf = make([]T, 0, s.threshold)
	s.mu.Unlock()

	if err := s.write(ctx, batch); err != nil {
		s.writeFailures.Add(1)
		s.logger.Error("batch write failed",
			logging.String(logging.FieldEventType, "sink_write_failed"),
			logging.String("trigger", trigger),
			logging.Int("batch_size", len(batch)),
			logging.Error(err),
		)
		return
	}

	s.flushes.Add(1)
	s.written.Add(int64(len(batch)))
	s.logger.Info("batch flushed",
		logging.String(logging.FieldEventType, "sink_flush"),
		logging.String("trigger", trigger),
		logging.Int("batch_size", len(batch)),
		logging.Int64("total_written", s.written.Load()),
	)
}
