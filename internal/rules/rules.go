package rules

import "strings"

// Category labels form the closed set shared by the AI categorizer and the
// keyword fallback.
const (
	CategoryFoodDining     = "Food & Dining"
	CategoryTransportation = "Transportation"
	CategoryShopping       = "Shopping"
	CategoryGroceries      = "Groceries"
	CategoryEntertainment  = "Entertainment"
	CategoryBillsUtilities = "Bills & Utilities"
	CategoryHealthFitness  = "Health & Fitness"
	CategoryTravel         = "Travel"
	CategoryIncome         = "Income"
	CategoryOther          = "Other"
)

// FallbackConfidence is reported for keyword matches; rule hits are reliable
// for the merchants they name but carry no model judgement.
const FallbackConfidence = 0.5

var categories = []string{
	CategoryFoodDining,
	CategoryTransportation,
	CategoryShopping,
	CategoryGroceries,
	CategoryEntertainment,
	CategoryBillsUtilities,
	CategoryHealthFitness,
	CategoryTravel,
	CategoryIncome,
	CategoryOther,
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}()

// keywordRules maps uppercase merchant fragments to categories. Order matters
// only within a description: the first matching rule wins.
var keywordRules = []struct {
	keyword  string
	category string
}{
	{"MCDONALD", CategoryFoodDining},
	{"STARBUCKS", CategoryFoodDining},
	{"CHIPOTLE", CategoryFoodDining},
	{"SUBWAY", CategoryFoodDining},
	{"PIZZA", CategoryFoodDining},
	{"RESTAURANT", CategoryFoodDining},
	{"DOORDASH", CategoryFoodDining},
	{"UBER EATS", CategoryFoodDining},
	{"SHELL", CategoryTransportation},
	{"CHEVRON", CategoryTransportation},
	{"EXXON", CategoryTransportation},
	{"UBER", CategoryTransportation},
	{"LYFT", CategoryTransportation},
	{"PARKING", CategoryTransportation},
	{"TRANSIT", CategoryTransportation},
	{"AMAZON", CategoryShopping},
	{"TARGET", CategoryShopping},
	{"WALMART", CategoryShopping},
	{"BEST BUY", CategoryShopping},
	{"KROGER", CategoryGroceries},
	{"SAFEWAY", CategoryGroceries},
	{"WHOLE FOODS", CategoryGroceries},
	{"TRADER JOE", CategoryGroceries},
	{"GROCERY", CategoryGroceries},
	{"NETFLIX", CategoryEntertainment},
	{"SPOTIFY", CategoryEntertainment},
	{"HULU", CategoryEntertainment},
	{"CINEMA", CategoryEntertainment},
	{"STEAM", CategoryEntertainment},
	{"COMCAST", CategoryBillsUtilities},
	{"VERIZON", CategoryBillsUtilities},
	{"AT&T", CategoryBillsUtilities},
	{"ELECTRIC", CategoryBillsUtilities},
	{"WATER", CategoryBillsUtilities},
	{"INSURANCE", CategoryBillsUtilities},
	{"PHARMACY", CategoryHealthFitness},
	{"CVS", CategoryHealthFitness},
	{"WALGREENS", CategoryHealthFitness},
	{"GYM", CategoryHealthFitness},
	{"FITNESS", CategoryHealthFitness},
	{"AIRLINES", CategoryTravel},
	{"AIRBNB", CategoryTravel},
	{"HOTEL", CategoryTravel},
	{"MARRIOTT", CategoryTravel},
	{"PAYROLL", CategoryIncome},
	{"DIRECT DEP", CategoryIncome},
	{"SALARY", CategoryIncome},
}

// Categories returns the closed label set in display order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// ValidCategory reports whether label belongs to the closed set.
func ValidCategory(label string) bool {
	_, ok := categorySet[label]
	return ok
}

// Categorize maps a transaction description to a category from the closed
// set. It never fails; descriptions with no keyword hit land in Other.
func Categorize(description string) (string, float64) {
	upper := strings.ToUpper(description)
	for _, rule := range keywordRules {
		if strings.Contains(upper, rule.keyword) {
			return rule.category, FallbackConfidence
		}
	}
	return CategoryOther, FallbackConfidence
}
