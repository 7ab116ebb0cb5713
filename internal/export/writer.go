package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"ledgerflow/internal/fileutil"
	"ledgerflow/internal/services"
	"ledgerflow/internal/txn"
)

// header is the fixed first row of every export artifact.
var header = []string{
	"id",
	"date",
	"amount",
	"description",
	"category",
	"confidence",
	"category_source",
	"status",
	"failure_reason",
}

// Writer accumulates categorized transactions and persists them to a
// single CSV artifact for the run. Every write rewrites the whole file
// through a temp-file rename, so a crash mid-batch leaves either the
// previous artifact or the new one, never a truncated mix.
type Writer struct {
	path string

	mu   sync.Mutex
	rows [][]string
}

// NewWriter creates a writer targeting a timestamped artifact inside
// dir. The artifact is not created until the first batch arrives.
func NewWriter(dir string, startedAt time.Time) *Writer {
	name := fmt.Sprintf("transactions_%s.csv", startedAt.UTC().Format("20060102T150405Z"))
	return &Writer{path: filepath.Join(dir, name)}
}

// Path returns the artifact location.
func (w *Writer) Path() string {
	return w.path
}

// Rows returns how many transaction rows have been persisted.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

// Write appends the batch and rewrites the artifact. An empty batch is
// a no-op, which makes duplicate final flushes harmless.
func (w *Writer) Write(ctx context.Context, batch []txn.Transaction) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write", "write cancelled", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, item := range batch {
		w.rows = append(w.rows, row(item))
	}
	return w.persist()
}

func (w *Writer) persist() error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write", "encode header", err)
	}
	if err := cw.WriteAll(w.rows); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write", "encode rows", err)
	}
	if err := fileutil.WriteAtomic(w.path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write", "persist artifact", err)
	}
	return nil
}

func row(item txn.Transaction) []string {
	confidence := ""
	if item.Category != "" {
		confidence = strconv.FormatFloat(item.Confidence, 'f', 2, 64)
	}
	return []string{
		item.ID,
		item.Date.Format("2006-01-02"),
		item.Amount.StringFixed(2),
		item.DisplayDescription(),
		item.Category,
		confidence,
		item.CategorySource,
		string(item.Status),
		item.FailureReason,
	}
}
