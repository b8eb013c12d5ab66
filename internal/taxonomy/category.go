package taxonomy

import (
	"strings"
)

// Category is a canonical receipt item category.
type Category string

const (
	Produce      Category = "produce"
	Dairy        Category = "dairy"
	Meat         Category = "meat"
	Bakery       Category = "bakery"
	Beverages    Category = "beverages"
	Alcohol      Category = "alcohol"
	Snacks       Category = "snacks"
	Frozen       Category = "frozen"
	Pantry       Category = "pantry"
	Household    Category = "household"
	PersonalCare Category = "personal_care"
	Pharmacy     Category = "pharmacy"
	Pet          Category = "pet"
	Deposit      Category = "deposit"
	Other        Category = "other"
)

var allCategories = []Category{
	Produce,
	Dairy,
	Meat,
	Bakery,
	Beverages,
	Alcohol,
	Snacks,
	Frozen,
	Pantry,
	Household,
	PersonalCare,
	Pharmacy,
	Pet,
	Deposit,
	Other,
}

// synonyms maps common extractor spellings to canonical categories.
var synonyms = map[string]Category{
	"fruit":          Produce,
	"fruits":         Produce,
	"vegetable":      Produce,
	"vegetables":     Produce,
	"fruit & veg":    Produce,
	"groente":        Produce,
	"obst":           Produce,
	"gemuse":         Produce,
	"milk":           Dairy,
	"cheese":         Dairy,
	"eggs":           Dairy,
	"zuivel":         Dairy,
	"molkerei":       Dairy,
	"fish":           Meat,
	"seafood":        Meat,
	"poultry":        Meat,
	"fleisch":        Meat,
	"vlees":          Meat,
	"bread":          Bakery,
	"brood":          Bakery,
	"brot":           Bakery,
	"pastry":         Bakery,
	"drink":          Beverages,
	"drinks":         Beverages,
	"soda":           Beverages,
	"juice":          Beverages,
	"coffee":         Beverages,
	"tea":            Beverages,
	"water":          Beverages,
	"beer":           Alcohol,
	"wine":           Alcohol,
	"spirits":        Alcohol,
	"bier":           Alcohol,
	"candy":          Snacks,
	"sweets":         Snacks,
	"chips":          Snacks,
	"chocolate":      Snacks,
	"ice cream":      Frozen,
	"frozen food":    Frozen,
	"tiefkuhl":       Frozen,
	"canned":         Pantry,
	"dry goods":      Pantry,
	"grocery":        Pantry,
	"groceries":      Pantry,
	"staples":        Pantry,
	"cleaning":       Household,
	"detergent":      Household,
	"paper goods":    Household,
	"hygiene":        PersonalCare,
	"cosmetics":      PersonalCare,
	"toiletries":     PersonalCare,
	"personal care":  PersonalCare,
	"medicine":       Pharmacy,
	"medication":     Pharmacy,
	"health":         Pharmacy,
	"pet food":       Pet,
	"pet supplies":   Pet,
	"pfand":          Deposit,
	"statiegeld":     Deposit,
	"bottle deposit": Deposit,
	"misc":           Other,
	"miscellaneous":  Other,
	"unknown":        Other,
}

// AsStringSlice returns the canonical category names.
func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-text category label to a canonical Category.
// The second return value reports whether the label was recognized;
// unrecognized labels map to Other.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "_", " ")

	for _, cat := range allCategories {
		if normalized == strings.ReplaceAll(string(cat), "_", " ") || normalized == string(cat) {
			return cat, true
		}
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// prefix match handles labels like "beverages - soft drinks"
	for _, cat := range allCategories {
		base := strings.ReplaceAll(string(cat), "_", " ")
		if strings.HasPrefix(normalized, base+" ") || strings.HasPrefix(normalized, base+"-") {
			return cat, true
		}
	}

	return Other, false
}
