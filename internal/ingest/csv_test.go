package ingest_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"ledgerflow/internal/ingest"
	"ledgerflow/internal/services"
	"ledgerflow/internal/txn"
)

func readAll(t *testing.T, source *ingest.CSVSource) ([]txn.Transaction, []error) {
	t.Helper()
	var items []txn.Transaction
	var failures []error
	for {
		item, err := source.Next()
		if errors.Is(err, io.EOF) {
			return items, failures
		}
		if err != nil {
			if !services.IsFatalItem(err) {
				t.Fatalf("unexpected non-item error: %v", err)
			}
			failures = append(failures, err)
			continue
		}
		items = append(items, item)
	}
}

func TestNextParsesRowsAndSkipsHeader(t *testing.T) {
	input := strings.Join([]string{
		"Date,Amount,Description",
		"2026-03-14,25.50,MCDONALDS #4521",
		`03/15/2026,"1,245.99",SHELL OIL 57710032`,
		"2026-03-16,($12.00),REFUND REVERSAL",
	}, "\n")

	items, failures := readAll(t, ingest.NewCSVSource(strings.NewReader(input)))
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	first := items[0]
	if first.Status != txn.StatusFetched {
		t.Fatalf("unexpected status %q", first.Status)
	}
	if first.Line != 2 {
		t.Fatalf("unexpected line %d", first.Line)
	}
	if first.Amount.String() != "25.5" {
		t.Fatalf("unexpected amount %s", first.Amount)
	}
	if items[1].Amount.String() != "1245.99" {
		t.Fatalf("comma amount parsed as %s", items[1].Amount)
	}
	if items[2].Amount.String() != "-12" {
		t.Fatalf("parenthesized amount parsed as %s", items[2].Amount)
	}
}

func TestNextReportsMalformedRowsAsFatalItems(t *testing.T) {
	input := strings.Join([]string{
		"date,amount,description",
		"not-a-date,10.00,COFFEE",
		"2026-03-14,ten dollars,COFFEE",
		"2026-03-14,10.00",
		"2026-03-15,4.75,STARBUCKS STORE 05291",
	}, "\n")

	items, failures := readAll(t, ingest.NewCSVSource(strings.NewReader(input)))
	if len(items) != 1 {
		t.Fatalf("expected 1 good item, got %d", len(items))
	}
	if len(failures) != 3 {
		t.Fatalf("expected 3 fatal rows, got %d: %v", len(failures), failures)
	}
	for _, err := range failures {
		if !strings.Contains(err.Error(), "row ") {
			t.Fatalf("diagnostic missing row number: %v", err)
		}
	}
}

func TestNextHandlesInputWithoutHeader(t *testing.T) {
	input := "2026-03-14,25.50,MCDONALDS\n"
	items, failures := readAll(t, ingest.NewCSVSource(strings.NewReader(input)))
	if len(failures) != 0 || len(items) != 1 {
		t.Fatalf("items=%d failures=%v", len(items), failures)
	}
	if items[0].Line != 1 {
		t.Fatalf("unexpected line %d", items[0].Line)
	}
}
