package notify

import (
	"fmt"
	"strings"

	"github.com/ossa-ma/recovrr/internal/models"
)

// formatSubject builds the alert email subject line
func formatSubject(profile *models.SearchProfile, result *models.AnalysisResult) string {
	item := itemDescription(profile)
	if result.Recommendation == models.RecommendationHighPriority || result.MatchScore >= 8 {
		return fmt.Sprintf("HIGH PRIORITY: %s possibly found (score %.1f/10)", item, result.MatchScore)
	}
	return fmt.Sprintf("Potential match: %s (score %.1f/10)", item, result.MatchScore)
}

// formatEmailBody builds the plain-text alert email body
func formatEmailBody(listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) string {
	price := "Unknown"
	if listing.Price != nil {
		price = fmt.Sprintf("$%.2f", *listing.Price)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A listing matching %q was found on %s.\n\n", profile.Name, marketplaceTitle(listing.Marketplace))
	fmt.Fprintf(&b, "Match score: %.1f/10 (%s confidence)\n\n", result.MatchScore, result.Confidence)
	fmt.Fprintf(&b, "Title:    %s\n", listing.Title)
	fmt.Fprintf(&b, "Price:    %s\n", price)
	fmt.Fprintf(&b, "Location: %s\n", orUnknown(listing.Location))
	fmt.Fprintf(&b, "URL:      %s\n\n", listing.URL)

	if result.Reasoning != "" {
		fmt.Fprintf(&b, "Analysis:\n%s\n\n", result.Reasoning)
	}
	if len(result.KeyIndicators) > 0 {
		b.WriteString("Key indicators:\n")
		for _, indicator := range result.KeyIndicators {
			fmt.Fprintf(&b, "  - %s\n", indicator)
		}
		b.WriteString("\n")
	}
	if len(result.Concerns) > 0 {
		b.WriteString("Concerns:\n")
		for _, concern := range result.Concerns {
			fmt.Fprintf(&b, "  - %s\n", concern)
		}
		b.WriteString("\n")
	}

	b.WriteString("If this is your item, contact the police. Do NOT contact the seller directly.\n\n-Recovrr")
	return b.String()
}

// formatSMSBody builds the short SMS alert text. Kept concise for carrier
// limits; the email carries the full analysis.
func formatSMSBody(listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) string {
	var priority string
	switch {
	case result.Recommendation == models.RecommendationHighPriority || result.MatchScore >= 8:
		priority = "HIGH PRIORITY"
	case result.MatchScore >= 6:
		priority = "POTENTIAL MATCH"
	default:
		priority = "POSSIBLE MATCH"
	}

	price := "Unknown"
	if listing.Price != nil {
		price = fmt.Sprintf("$%.2f", *listing.Price)
	}

	message := fmt.Sprintf("%s\n\n%s found on %s!\n\nScore: %.1f/10\nPrice: %s\nLocation: %s\n\nView: %s\n\nContact police if this is your item. Do NOT contact seller directly.\n\n-Recovrr",
		priority,
		itemDescription(profile),
		marketplaceTitle(listing.Marketplace),
		result.MatchScore,
		price,
		orUnknown(listing.Location),
		listing.URL,
	)

	// Most carriers cap long SMS at 1600 characters
	if len(message) > 1600 {
		message = message[:1597] + "..."
	}
	return message
}

func itemDescription(profile *models.SearchProfile) string {
	desc := strings.TrimSpace(strings.TrimSpace(profile.Make) + " " + strings.TrimSpace(profile.Model))
	if desc == "" {
		return "your item"
	}
	return desc
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// marketplaceTitle capitalizes a marketplace identifier for display
func marketplaceTitle(s string) string {
	if s == "" {
		return "marketplace"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
