package matcher

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/ossa-ma/recovrr/internal/models"
)

// systemPrompt instructs the model how to score listings and pins the
// exact JSON output shape.
const systemPrompt = `You are an expert assistant specialized in identifying stolen items on marketplaces.

Your task is to analyze marketplace listings and determine if they match descriptions of stolen items. You must be thorough but avoid false positives that could waste someone's time.

Key analysis factors:
1. **Make and Model**: Exact or close matches are strong indicators
2. **Physical Characteristics**: Color, size, condition details
3. **Unique Features**: Scratches, modifications, distinctive markings
4. **Location**: Geographic proximity to where item was stolen
5. **Price**: Unusually low prices might indicate stolen goods
6. **Seller Behavior**: Vague descriptions, poor photos, urgency to sell
7. **Timeline**: Recently listed items after theft date

Scoring Guidelines:
- 9-10: Very high confidence match (multiple strong indicators)
- 7-8: High confidence (several good indicators)
- 5-6: Moderate confidence (some indicators but missing key details)
- 3-4: Low confidence (few weak indicators)
- 1-2: Very low confidence (minimal similarity)
- 0: No match

Always provide your response in this exact JSON format:
{
    "match_score": <float between 0-10>,
    "confidence_level": "<low|medium|high>",
    "reasoning": "<detailed explanation of your analysis>",
    "key_indicators": ["<list of specific matching factors>"],
    "concerns": ["<list of potential issues or missing information>"],
    "recommendation": "<investigate|ignore|high_priority>"
}`

// buildAnalysisPrompt assembles the user prompt for one listing/profile pair
func buildAnalysisPrompt(listing *models.Listing, profile *models.SearchProfile) string {
	price := "Unknown"
	if listing.Price != nil {
		price = fmt.Sprintf("$%.2f", *listing.Price)
	}

	return fmt.Sprintf(`--- STOLEN ITEM DETAILS ---
Make: %s
Model: %s
Color: %s
Size: %s
Description: %s
Unique Features: %s
Stolen Location: %s
Additional Search Terms: %s

--- MARKETPLACE LISTING ---
Title: %s
Description: %s
Price: %s
Location: %s
Marketplace: %s
URL: %s
Images Available: %d images

--- ANALYSIS TASK ---
Based on the provided details, analyze the likelihood that this marketplace listing is the stolen item.
Pay special attention to make, model, color, size, location proximity, and any unique features mentioned.
Consider the price point and seller behavior if relevant.

Provide your analysis in the required JSON format.`,
		orUnknown(profile.Make),
		orUnknown(profile.Model),
		orUnknown(profile.Color),
		orUnknown(profile.Size),
		orDefault(profile.Description, "No description provided"),
		orDefault(profile.UniqueFeatures, "None specified"),
		orUnknown(profile.Location),
		strings.Join(profile.SearchTerms, ", "),
		orDefault(listing.Title, "No title"),
		orDefault(cleanDescription(listing.Description), "No description"),
		price,
		orUnknown(listing.Location),
		orUnknown(listing.Marketplace),
		orDefault(listing.URL, "No URL"),
		len(listing.ImageURLs),
	)
}

// cleanDescription converts HTML listing descriptions to markdown so the
// model sees readable text instead of tag soup. Plain-text descriptions
// pass through unchanged.
func cleanDescription(description string) string {
	if !strings.Contains(description, "<") || !strings.Contains(description, ">") {
		return description
	}

	converter := md.NewConverter("", true, nil)
	converted, err := converter.ConvertString(description)
	if err != nil {
		return description
	}
	if trimmed := strings.TrimSpace(converted); trimmed != "" {
		return trimmed
	}
	return description
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
