package pipeline_test

import (
	"context"
	"testing"
	"time"

	"ledgerflow/internal/pipeline"
)

func TestSizeTriggeredFlushExactness(t *testing.T) {
	recorder := &batchRecorder{}
	stage := newStage(t, pipeline.StageConfig[int]{Name: "noop", Workers: 1, Transform: passthrough})
	sink := newSink(t, pipeline.SinkConfig[int]{
		Name:          "collect",
		BufferSize:    3,
		FlushInterval: time.Hour, // the timer must not fire during the test
		Write:         recorder.write,
	})
	orch := newOrchestrator(t, pipeline.OrchestratorConfig[int]{
		Stages: []*pipeline.Stage[int]{stage},
		Sink:   sink,
	})

	summary, err := orch.Run(context.Background(), &sliceSource{values: []int{1, 2, 3, 4, 5, 6, 7}}, time.Minute)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	batches := recorder.snapshot()
	if len(batches) != 3 {
		t.Fatalf("expected 2 size flushes + 1 final flush, got %d: %v", len(batches), batches)
	}
	if len(batches[0]) != 3 || len(batches[1]) != 3 || len(batches[2]) != 1 {
		t.Fatalf("unexpected batch sizes: %v", batches)
	}
	if summary.Flushed != 7 || summary.Flushes != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// No duplicates, no loss.
	seen := map[int]int{}
	for _, v := range recorder.flat() {
		seen[v]++
	}
	for i := 1; i <= 7; i++ {
		if seen[i] != 1 {
			t.Fatalf("item %d emitted %d times", i, seen[i])
		}
	}
}

func TestFinalFlushIsIdempotent(t *testing.T) {
	recorder := &batchRecorder{}
	stage := newStage(t, pipeline.StageConfig[int]{Name: "noop", Workers: 1, Transform: passthrough})
	sink := newSink(t, pipeline.SinkConfig[int]{
		Name: "collect", BufferSize: 10, FlushInterval: time.Hour, Write: recorder.write,
	})
	orch := newOrchestrator(t, pipeline.OrchestratorConfig[int]{
		Stages: []*pipeline.Stage[int]{stage},
		Sink:   sink,
	})

	if _, err := orch.Run(context.Background(), &sliceSource{values: []int{1, 2}}, time.Minute); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(recorder.snapshot()); got != 1 {
		t.Fatalf("expected a single final flush, got %d", got)
	}

	// Defensive re-invocation during disposal must not duplicate output.
	sink.FinalFlush(context.Background())
	sink.FinalFlush(context.Background())
	if got := len(recorder.snapshot()); got != 1 {
		t.Fatalf("repeated FinalFlush wrote again: %d batches", got)
	}
	if sink.Written() != 2 {
		t.Fatalf("written = %d, want 2", sink.Written())
	}
}

func TestTimerTriggeredFlush(t *testing.T) {
	recorder := &batchRecorder{}
	gate := make(chan struct{})
	hold := newStage(t, pipeline.StageConfig[int]{
		Name:    "hold",
		Workers: 1,
		Transform: func(_ context.Context, item int) pipeline.Result[int] {
			if item == 3 {
				<-gate // keep the run alive until the timer has fired
			}
			return pipeline.Ok(item)
		},
	})
	sink := newSink(t, pipeline.SinkConfig[int]{
		Name:          "collect",
		BufferSize:    100,
		FlushInterval: 50 * time.Millisecond,
		Write:         recorder.write,
	})
	orch := newOrchestrator(t, pipeline.OrchestratorConfig[int]{
		Stages: []*pipeline.Stage[int]{hold},
		Sink:   sink,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = orch.Run(context.Background(), &sliceSource{values: []int{1, 2, 3}}, time.Minute)
	}()

	deadline := time.After(2 * time.Second)
	for sink.Flushes() == 0 {
		select {
		case <-deadline:
			t.Fatal("timer never flushed the buffer")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The periodic flush emitted the first two items while the third was
	// still in flight.
	if got := sink.Written(); got != 2 {
		t.Fatalf("timer flush wrote %d items, want 2", got)
	}

	close(gate)
	<-done
	if sink.Written() != 3 {
		t.Fatalf("final tally = %d, want 3", sink.Written())
	}
}

func TestNewSinkValidation(t *testing.T) {
	if _, err := pipeline.NewSink(pipeline.SinkConfig[int]{
		Write: func(context.Context, []int) error { return nil },
	}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := pipeline.NewSink(pipeline.SinkConfig[int]{Name: "x"}); err == nil {
		t.Fatal("expected error for missing writer")
	}
	if _, err := pipeline.NewSink(pipeline.SinkConfig[int]{
		Name:       "x",
		BufferSize: -1,
		Write:      func(context.Context, []int) error { return nil },
	}); err == nil {
		t.Fatal("expected error for negative buffer size")
	}
}
