package rules_test

import (
	"testing"

	"ledgerflow/internal/rules"
)

func TestCategorizeKnownMerchants(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"MCDONALDS #4521", rules.CategoryFoodDining},
		{"SHELL OIL 5771", rules.CategoryTransportation},
		{"AMAZON MARKETPLACE", rules.CategoryShopping},
		{"Whole Foods Market", rules.CategoryGroceries},
		{"NETFLIX.COM", rules.CategoryEntertainment},
		{"ACME PAYROLL 0042", rules.CategoryIncome},
		{"mystery merchant", rules.CategoryOther},
	}
	for _, tc := range cases {
		got, confidence := rules.Categorize(tc.description)
		if got != tc.want {
			t.Fatalf("Categorize(%q) = %q, want %q", tc.description, got, tc.want)
		}
		if confidence != rules.FallbackConfidence {
			t.Fatalf("Categorize(%q) confidence = %v", tc.description, confidence)
		}
	}
}

func TestCategorizeAlwaysReturnsClosedSetLabel(t *testing.T) {
	descriptions := []string{"", "   ", "ZZZZZ", "SHELL", "totally unknown 123"}
	for _, description := range descriptions {
		got, _ := rules.Categorize(description)
		if !rules.ValidCategory(got) {
			t.Fatalf("Categorize(%q) returned label outside the set: %q", description, got)
		}
	}
}

func TestCategoriesIncludesOther(t *testing.T) {
	found := false
	for _, label := range rules.Categories() {
		if label == rules.CategoryOther {
			found = true
		}
	}
	if !found {
		t.Fatal("closed set must contain the Other label")
	}
}
