package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"ledgerflow/internal/services"
)

func newTestLogger(t *testing.T, format string, buf *bytes.Buffer) *slog.Logger {
	t.Helper()
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(buf, levelVar)
	} else {
		handler = newConsoleHandler(buf, levelVar)
	}
	return slog.New(handler)
}

func TestConsoleHandlerComposesSubject(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "console", &buf)
	logger = NewComponentLogger(logger, "pipeline")

	logger.Info("item forwarded",
		String(FieldStage, "categorize"),
		String(FieldItemID, "tx-12"),
		Int("queued", 3),
	)

	line := buf.String()
	for _, fragment := range []string{"[pipeline]", "(categorize tx-12)", "item forwarded", "queued=3"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("output %q missing %q", line, fragment)
		}
	}
}

func TestConsoleHandlerQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "console", &buf)

	logger.Info("flush complete", String("output", "batch one"))
	if !strings.Contains(buf.String(), `output="batch one"`) {
		t.Fatalf("spaced value not quoted: %q", buf.String())
	}
}

func TestJSONHandlerRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "json", &buf)

	logger.Info("run started", String(FieldRunID, "run-9"))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output %q: %v", buf.String(), err)
	}
	if decoded["msg"] != "run started" {
		t.Fatalf("unexpected msg field: %#v", decoded)
	}
	if decoded["level"] != "info" {
		t.Fatalf("unexpected level field: %#v", decoded)
	}
	if _, ok := decoded["ts"]; !ok {
		t.Fatalf("missing ts field: %#v", decoded)
	}
	if decoded[FieldRunID] != "run-9" {
		t.Fatalf("missing run id: %#v", decoded)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "console", &buf)

	ctx := services.WithRunID(context.Background(), "run-3")
	ctx = services.WithStage(ctx, "clean")
	WithContext(ctx, logger).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "run_id=run-3") || !strings.Contains(line, "(clean)") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if lvl := parseLevel("chatty"); lvl != slog.LevelInfo {
		t.Fatalf("unexpected level %v", lvl)
	}
	if lvl := parseLevel("ERROR"); lvl != slog.LevelError {
		t.Fatalf("unexpected level %v", lvl)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
