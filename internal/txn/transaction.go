package txn

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category sources recorded on categorized transactions.
const (
	CategorySourceAI    = "ai"
	CategorySourceRules = "rules"
)

// Transaction is one bank record moving through the pipeline. Values are
// copied between stages; mutators return a new Transaction and never touch
// the receiver.
type Transaction struct {
	ID             string
	Line           int
	Date           time.Time
	Amount         decimal.Decimal
	RawDescription string
	Description    string
	EmailSubject   string
	EmailSnippet   string
	Category       string
	Confidence     float64
	CategorySource string
	FailureReason  string
	Status         Status
}

// New creates a freshly fetched transaction from parsed source fields.
func New(line int, date time.Time, amount decimal.Decimal, rawDescription string) Transaction {
	return Transaction{
		ID:             uuid.NewString(),
		Line:           line,
		Date:           date,
		Amount:         amount,
		RawDescription: strings.TrimSpace(rawDescription),
		Status:         StatusFetched,
	}
}

// advance moves the status forward; a regression request keeps the current
// status so observed status sequences stay non-decreasing.
func (t Transaction) advance(next Status) Transaction {
	if t.Status.Rank() < next.Rank() {
		t.Status = next
	}
	return t
}

// WithDescription returns a copy carrying the cleaned description.
func (t Transaction) WithDescription(cleaned string) Transaction {
	t.Description = strings.TrimSpace(cleaned)
	return t.advance(StatusCleaned)
}

// WithEmailContext returns a copy enriched with mail subject and snippet.
// Empty values are legal; enrichment is best effort and its absence still
// advances the item past the enrichment stage.
func (t Transaction) WithEmailContext(subject, snippet string) Transaction {
	t.EmailSubject = strings.TrimSpace(subject)
	t.EmailSnippet = strings.TrimSpace(snippet)
	return t.advance(StatusEnriched)
}

// WithCategory returns a copy carrying the assigned category. Source should
// be CategorySourceAI or CategorySourceRules.
func (t Transaction) WithCategory(category string, confidence float64, source string) Transaction {
	t.Category = strings.TrimSpace(category)
	t.Confidence = confidence
	t.CategorySource = source
	return t.advance(StatusCategorized)
}

// MarkExported returns a copy recorded as durably written.
func (t Transaction) MarkExported() Transaction {
	return t.advance(StatusExported)
}

// MarkFailed diverts the item to the terminal failed state, preserving any
// enrichment already applied.
func (t Transaction) MarkFailed(reason string) Transaction {
	t.FailureReason = strings.TrimSpace(reason)
	t.Status = StatusFailed
	return t
}

// Failed reports whether the item took the failure path.
func (t Transaction) Failed() bool {
	return t.Status == StatusFailed
}

// DisplayDescription returns the cleaned description when present, falling
// back to the raw source text.
func (t Transaction) DisplayDescription() string {
	if t.Description != "" {
		return t.Description
	}
	return t.RawDescription
}
