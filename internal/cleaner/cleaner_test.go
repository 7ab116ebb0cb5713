package cleaner_test

import (
	"testing"

	"ledgerflow/internal/cleaner"
	"ledgerflow/internal/services"
)

func TestCleanNormalizesDescriptions(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"MCDONALDS #4521", "Mcdonalds"},
		{"POS DEBIT SHELL OIL 57710032", "Shell Oil"},
		{"PURCHASE AUTHORIZED ON 03/12 AMAZON MKTPL*2K41Z", "Amazon Mktpl"},
		{"DEBIT CARD PURCHASE   WHOLE   FOODS  MKT 10233", "Whole Foods Mkt"},
		{"CHECKCARD 0314 STARBUCKS STORE 05291", "Starbucks Store"},
		{"ACH DEBIT COMCAST CABLE", "Comcast Cable"},
	}
	for _, tc := range cases {
		got, err := cleaner.Clean(tc.raw)
		if err != nil {
			t.Fatalf("Clean(%q) failed: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("Clean(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCleanRejectsEmptyResult(t *testing.T) {
	for _, raw := range []string{"", "   ", "#123456", "0042 99887"} {
		_, err := cleaner.Clean(raw)
		if err == nil {
			t.Fatalf("Clean(%q) succeeded, want fatal item error", raw)
		}
		if !services.IsFatalItem(err) {
			t.Fatalf("Clean(%q) error not fatal: %v", raw, err)
		}
	}
}
