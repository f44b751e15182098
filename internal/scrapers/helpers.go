package scrapers

import (
	"strconv"
	"strings"
)

// Marketplace identifiers for the built-in scrapers.
const (
	MarketplaceEbay     = "ebay"
	MarketplaceFacebook = "facebook"
)

// cleanText collapses runs of whitespace and trims the result
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// cleanPrice extracts a numeric price from marketplace price text such as
// "$1,250.00", "£150" or "$20 to $35". Ranges take the first price.
// Returns nil when no number can be recovered.
func cleanPrice(priceText string) *float64 {
	cleaned := strings.NewReplacer(
		"$", "",
		"£", "",
		"€", "",
		",", "",
		" ", "",
	).Replace(priceText)

	// "to"-separated and dash-separated ranges both occur on eBay
	if idx := strings.Index(cleaned, "to"); idx > 0 {
		cleaned = cleaned[:idx]
	}
	if idx := strings.Index(cleaned, "-"); idx > 0 {
		cleaned = cleaned[:idx]
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &price
}
