package txn_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/txn"
)

func newFetched(t *testing.T, description string) txn.Transaction {
	t.Helper()
	amount := decimal.RequireFromString("25.50")
	return txn.New(2, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), amount, description)
}

func TestNewAssignsIdentityAndStatus(t *testing.T) {
	tx := newFetched(t, "  MCDONALDS #4521  ")
	if tx.ID == "" {
		t.Fatal("expected generated ID")
	}
	if tx.Status != txn.StatusFetched {
		t.Fatalf("unexpected status %q", tx.Status)
	}
	if tx.RawDescription != "MCDONALDS #4521" {
		t.Fatalf("unexpected raw description %q", tx.RawDescription)
	}
}

func TestMutatorsCopyInsteadOfMutating(t *testing.T) {
	original := newFetched(t, "SHELL OIL 5771")
	cleaned := original.WithDescription("Shell Oil")

	if original.Description != "" || original.Status != txn.StatusFetched {
		t.Fatalf("original mutated: %#v", original)
	}
	if cleaned.Description != "Shell Oil" || cleaned.Status != txn.StatusCleaned {
		t.Fatalf("unexpected cleaned copy: %#v", cleaned)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	tx := newFetched(t, "AMAZON MARKETPLACE")
	tx = tx.WithDescription("Amazon Marketplace")
	tx = tx.WithCategory("Shopping", 0.9, txn.CategorySourceAI)

	// A late enrichment must not pull the item back to enriched.
	tx = tx.WithEmailContext("Your order shipped", "Order #123")
	if tx.Status != txn.StatusCategorized {
		t.Fatalf("status regressed to %q", tx.Status)
	}
	if tx.EmailSubject != "Your order shipped" {
		t.Fatalf("enrichment lost: %#v", tx)
	}
}

func TestMarkFailedIsTerminalAndPreservesFields(t *testing.T) {
	tx := newFetched(t, "MCDONALDS")
	tx = tx.WithDescription("Mcdonalds")
	failed := tx.MarkFailed("categorizer unavailable")

	if !failed.Failed() {
		t.Fatalf("expected failed status, got %q", failed.Status)
	}
	if failed.Description != "Mcdonalds" {
		t.Fatal("failure discarded cleaned description")
	}
	if exported := failed.MarkExported(); exported.Status != txn.StatusFailed {
		t.Fatalf("failed item advanced to %q", exported.Status)
	}
}

func TestStatusOrdering(t *testing.T) {
	ordered := []txn.Status{
		txn.StatusFetched,
		txn.StatusCleaned,
		txn.StatusEnriched,
		txn.StatusCategorized,
		txn.StatusExported,
	}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i-1].Before(ordered[i]) {
			t.Fatalf("expected %q before %q", ordered[i-1], ordered[i])
		}
	}
	if txn.Status("bogus").Valid() {
		t.Fatal("unexpected valid status")
	}
	if !txn.StatusExported.Terminal() || !txn.StatusFailed.Terminal() {
		t.Fatal("terminal statuses misreported")
	}
}
