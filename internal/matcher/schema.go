package matcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ossa-ma/recovrr/internal/models"
)

// matchResponse is the JSON shape the scoring model must return.
// Fields are validated using go-playground/validator tags before the
// response is trusted.
type matchResponse struct {
	MatchScore     float64  `json:"match_score" validate:"gte=0,lte=10"`
	Confidence     string   `json:"confidence_level" validate:"required,oneof=low medium high"`
	Reasoning      string   `json:"reasoning" validate:"required"`
	KeyIndicators  []string `json:"key_indicators"`
	Concerns       []string `json:"concerns"`
	Recommendation string   `json:"recommendation" validate:"required,oneof=investigate ignore high_priority"`
}

var validate = validator.New()

// parseResponse extracts, decodes and validates a model response.
func parseResponse(raw string) (*matchResponse, error) {
	jsonStr := extractJSON(raw)

	var resp matchResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}

	if err := validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("model response failed validation: %w", err)
	}

	return &resp, nil
}

// toResult converts a validated model response into an analysis result
func (r *matchResponse) toResult(listingID, profileID, modelName string) *models.AnalysisResult {
	return &models.AnalysisResult{
		ListingID:      listingID,
		ProfileID:      profileID,
		MatchScore:     r.MatchScore,
		Confidence:     models.Confidence(r.Confidence),
		Reasoning:      r.Reasoning,
		KeyIndicators:  r.KeyIndicators,
		Concerns:       r.Concerns,
		Recommendation: models.Recommendation(r.Recommendation),
		ModelUsed:      modelName,
	}
}

// degradedResult is the fallback when scoring fails for any reason. The
// pipeline keeps moving: the listing scores zero with an explanation
// instead of being dropped.
func degradedResult(listingID, profileID, modelName, reason string) *models.AnalysisResult {
	return &models.AnalysisResult{
		ListingID:      listingID,
		ProfileID:      profileID,
		MatchScore:     0.0,
		Confidence:     models.ConfidenceLow,
		Reasoning:      fmt.Sprintf("Analysis failed: %s", reason),
		Concerns:       []string{"Analysis error occurred"},
		Recommendation: models.RecommendationIgnore,
		ModelUsed:      modelName,
	}
}

// extractJSON pulls the JSON object out of a model response, handling
// markdown code fences and leading/trailing prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		lines := strings.Split(response, "\n")
		var jsonLines []string
		inCodeBlock := false

		for _, line := range lines {
			if strings.HasPrefix(line, "```") {
				if inCodeBlock {
					break
				}
				inCodeBlock = true
				continue
			}
			if inCodeBlock {
				jsonLines = append(jsonLines, line)
			}
		}

		if len(jsonLines) > 0 {
			return strings.Join(jsonLines, "\n")
		}
	}

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx >= 0 && endIdx > startIdx {
		return response[startIdx : endIdx+1]
	}

	return response
}
