package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossa-ma/recovrr/internal/models"
)

func TestParseResponse_ValidJSON(t *testing.T) {
	raw := `{
  "match_score": 8.5,
  "confidence_level": "high",
  "reasoning": "Same make, model and color, price well below market",
  "key_indicators": ["matching frame size", "identical scratch"],
  "concerns": ["stock photo used"],
  "recommendation": "high_priority"
}`

	resp, err := parseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, 8.5, resp.MatchScore)
	assert.Equal(t, "high", resp.Confidence)
	assert.Len(t, resp.KeyIndicators, 2)
	assert.Equal(t, "high_priority", resp.Recommendation)
}

func TestParseResponse_CodeFence(t *testing.T) {
	raw := "Here is my analysis:\n```json\n{\"match_score\": 3.0, \"confidence_level\": \"low\", \"reasoning\": \"Different model\", \"recommendation\": \"ignore\"}\n```"

	// Prose before the fence still resolves via brace extraction
	resp, err := parseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, 3.0, resp.MatchScore)
	assert.Equal(t, "ignore", resp.Recommendation)
}

func TestParseResponse_FenceOnly(t *testing.T) {
	raw := "```json\n{\"match_score\": 6.0, \"confidence_level\": \"medium\", \"reasoning\": \"Partial match\", \"recommendation\": \"investigate\"}\n```"

	resp, err := parseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, 6.0, resp.MatchScore)
}

func TestParseResponse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not JSON", "I could not analyze this listing."},
		{"score out of range", `{"match_score": 11, "confidence_level": "high", "reasoning": "x", "recommendation": "investigate"}`},
		{"bad confidence", `{"match_score": 5, "confidence_level": "certain", "reasoning": "x", "recommendation": "investigate"}`},
		{"bad recommendation", `{"match_score": 5, "confidence_level": "low", "reasoning": "x", "recommendation": "call police"}`},
		{"missing reasoning", `{"match_score": 5, "confidence_level": "low", "recommendation": "ignore"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extractJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, extractJSON(`prose before {"a": 1} prose after`))
	assert.Equal(t, "no json here", extractJSON("no json here"))
}

func TestToResult(t *testing.T) {
	resp := &matchResponse{
		MatchScore:     7.5,
		Confidence:     "medium",
		Reasoning:      "Matches description",
		Recommendation: "investigate",
	}

	result := resp.toResult("lst_1", "prf_1", "gemini-2.5-flash")
	assert.Equal(t, "lst_1", result.ListingID)
	assert.Equal(t, "prf_1", result.ProfileID)
	assert.Equal(t, 7.5, result.MatchScore)
	assert.Equal(t, models.ConfidenceMedium, result.Confidence)
	assert.Equal(t, models.RecommendationInvestigate, result.Recommendation)
	assert.Equal(t, "gemini-2.5-flash", result.ModelUsed)
}

func TestDegradedResult(t *testing.T) {
	result := degradedResult("lst_1", "prf_1", "claude-haiku-3-5-20241022", "request timed out")

	assert.Equal(t, 0.0, result.MatchScore)
	assert.Equal(t, models.ConfidenceLow, result.Confidence)
	assert.Equal(t, models.RecommendationIgnore, result.Recommendation)
	assert.Contains(t, result.Reasoning, "request timed out")
	assert.False(t, result.ShouldNotify(7.0))
}
