package export_test

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/export"
	"ledgerflow/internal/txn"
)

func sample(line int, desc, category string) txn.Transaction {
	item := txn.New(line, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(-12.50), desc)
	item = item.WithDescription(desc)
	if category != "" {
		item = item.WithCategory(category, 0.9, txn.CategorySourceAI)
	}
	return item
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse artifact: %v", err)
	}
	return rows
}

func TestWriterWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	w := export.NewWriter(dir, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC))

	batch := []txn.Transaction{
		sample(1, "Mcdonalds", "Food & Dining"),
		sample(2, "Shell Oil", "Transportation"),
	}
	if err := w.Write(context.Background(), batch); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	rows := readRows(t, w.Path())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][4] != "category" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][3] != "Mcdonalds" || rows[1][4] != "Food & Dining" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[1][2] != "-12.50" {
		t.Fatalf("unexpected amount %q", rows[1][2])
	}
	if rows[2][5] != "0.90" {
		t.Fatalf("unexpected confidence %q", rows[2][5])
	}
}

func TestWriterRewritesCumulatively(t *testing.T) {
	dir := t.TempDir()
	w := export.NewWriter(dir, time.Now())
	ctx := context.Background()

	if err := w.Write(ctx, []txn.Transaction{sample(1, "Amazon Mktpl", "Shopping")}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := w.Write(ctx, []txn.Transaction{sample(2, "Netflix", "Entertainment")}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	rows := readRows(t, w.Path())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 cumulative rows, got %d", len(rows))
	}
	if rows[1][3] != "Amazon Mktpl" || rows[2][3] != "Netflix" {
		t.Fatalf("rows out of order: %v", rows)
	}
	if w.Rows() != 2 {
		t.Fatalf("expected 2 tracked rows, got %d", w.Rows())
	}
}

func TestWriterEmptyBatchIsNoOp(t *testing.T) {
	dir := t.TempDir()
	w := export.NewWriter(dir, time.Now())

	if err := w.Write(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := os.Stat(w.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected no artifact for empty batch, stat err = %v", err)
	}
}

func TestWriterFailedRowCarriesReason(t *testing.T) {
	dir := t.TempDir()
	w := export.NewWriter(dir, time.Now())

	item := sample(1, "Garbled", "").MarkFailed("cleaning produced empty description")
	if err := w.Write(context.Background(), []txn.Transaction{item}); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	rows := readRows(t, w.Path())
	if rows[1][7] != "failed" {
		t.Fatalf("unexpected status %q", rows[1][7])
	}
	if rows[1][8] != "cleaning produced empty description" {
		t.Fatalf("unexpected failure reason %q", rows[1][8])
	}
	if rows[1][5] != "" {
		t.Fatalf("expected empty confidence for uncategorized row, got %q", rows[1][5])
	}
}
