package categorizer

import (
	"fmt"
	"strings"

	"ledgerflow/internal/rules"
	"ledgerflow/internal/txn"
)

// systemPrompt instructs the model to pick exactly one category from the
// closed set and report its confidence.
var systemPrompt = fmt.Sprintf(`You classify bank transactions into spending categories.

Pick exactly one category from this list:
%s

Respond with JSON only, in this shape:
{"category": "<one of the categories above>", "confidence": <0.0 to 1.0>}

Use "Other" when nothing fits. Never invent a category that is not in the list.`,
	strings.Join(rules.Categories(), "\n"))

// userPrompt renders one transaction for classification. Email context is
// included when enrichment found any.
func userPrompt(item txn.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Description: %s\n", item.DisplayDescription())
	fmt.Fprintf(&b, "Amount: %s\n", item.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Date: %s\n", item.Date.Format("2006-01-02"))
	if item.EmailSubject != "" {
		fmt.Fprintf(&b, "Email subject: %s\n", item.EmailSubject)
	}
	if item.EmailSnippet != "" {
		fmt.Fprintf(&b, "Email snippet: %s\n", item.EmailSnippet)
	}
	return strings.TrimSpace(b.String())
}
