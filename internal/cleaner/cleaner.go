package cleaner

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ledgerflow/internal/services"
)

var (
	// Processor boilerplate that precedes the merchant name on many feeds.
	prefixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^POS\s+(DEBIT|PURCHASE)\s+`),
		regexp.MustCompile(`(?i)^DEBIT\s+CARD\s+PURCHASE\s+`),
		regexp.MustCompile(`(?i)^PURCHASE\s+AUTHORIZED\s+ON\s+\d{2}/\d{2}\s+`),
		regexp.MustCompile(`(?i)^CHECKCARD\s+\d{4}\s+`),
		regexp.MustCompile(`(?i)^ACH\s+(DEBIT|CREDIT)\s+`),
	}

	// Card numbers, store numbers, and reference codes.
	referencePattern  = regexp.MustCompile(`[#*]?\b\d{4,}\b`)
	codePattern       = regexp.MustCompile(`[#*]\w+`)
	trailingJunk      = regexp.MustCompile(`[-#*/]+\s*$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Clean normalizes a raw description. It returns a fatal item error when the
// input contains no usable merchant text.
func Clean(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	for _, pattern := range prefixPatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	text = referencePattern.ReplaceAllString(text, " ")
	text = codePattern.ReplaceAllString(text, " ")
	text = trailingJunk.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", services.Wrap(services.ErrFatalItem, "clean", "normalize", "description is empty after cleaning", nil)
	}

	// Caser values are stateful; build one per call rather than sharing.
	titled := cases.Title(language.English).String(strings.ToLower(text))
	return titled, nil
}
