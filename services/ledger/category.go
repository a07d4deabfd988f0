package ledger

import (
	// Go Internal Packages
	"strings"
)

// Category keys and icon names derived from provider catalog data.
// Both are display hints, never authoritative; they are recomputed
// whenever the brand/category inputs change.
const (
	CategoryPLN    = "token_listrik"
	CategoryGame   = "game"
	CategoryEMoney = "e_money"
	CategoryOther  = "lainnya"

	IconPLN     = "Zap"
	IconGame    = "Gamepad2"
	IconEMoney  = "Wallet"
	IconDefault = "Default"
)

// categoryRule pairs a predicate over the (category, brand) inputs
// with the derived key and icon. Rules are evaluated in order; the
// first match wins.
type categoryRule struct {
	match func(category, brand string) bool
	key   string
	icon  string
}

// Named game brands that must match before any generic "game"
// category keyword.
var gameBrands = []string{
	"free fire",
	"mobile legends",
	"genshin impact",
	"honkai star rail",
}

var gameKeywords = []string{"game", "games", "topup", "top up"}

var eMoneyKeywords = []string{
	"e-money", "emoney", "e-wallet", "ewallet",
	"ovo", "dana", "gopay", "go pay", "shopeepay", "shopee pay", "linkaja", "link aja",
}

// iconLookup is the generic fallback from a category keyword to an
// icon when no rule matched. Ordered so "pulsa data" resolves the same
// way every time.
var iconLookup = []struct {
	keyword string
	icon    string
}{
	{"pulsa", "Smartphone"},
	{"data", "Wifi"},
	{"voucher", "Ticket"},
	{"pln", IconPLN},
}

var categoryRules = []categoryRule{
	{
		// PLN brand outranks everything, including a generic
		// "token" category.
		match: func(_, brand string) bool { return strings.Contains(brand, "pln") },
		key:   CategoryPLN,
		icon:  IconPLN,
	},
	{
		match: func(_, brand string) bool { return containsAny(brand, gameBrands) },
		key:   CategoryGame,
		icon:  IconGame,
	},
	{
		match: func(category, _ string) bool { return containsAny(category, gameKeywords) },
		key:   CategoryGame,
		icon:  IconGame,
	},
	{
		match: func(category, brand string) bool {
			return containsAny(brand, eMoneyKeywords) || containsAny(category, eMoneyKeywords)
		},
		key:   CategoryEMoney,
		icon:  IconEMoney,
	},
}

// DeriveCategory maps provider catalog inputs to a category key and
// icon name using the ordered rule table, falling back to a generic
// icon lookup on the category keyword and finally to Default.
func DeriveCategory(productCategory, productBrand string) (key, icon string) {
	category := strings.ToLower(strings.TrimSpace(productCategory))
	brand := strings.ToLower(strings.TrimSpace(productBrand))

	for _, rule := range categoryRules {
		if rule.match(category, brand) {
			return rule.key, rule.icon
		}
	}

	for _, entry := range iconLookup {
		if strings.Contains(category, entry.keyword) {
			return slugify(category), entry.icon
		}
	}

	if category == "" {
		return CategoryOther, IconDefault
	}
	return slugify(category), IconDefault
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}
