package models

import "time"

// Confidence level reported by the match scorer.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Recommendation is the scorer's suggested next action.
type Recommendation string

const (
	RecommendationInvestigate  Recommendation = "investigate"
	RecommendationIgnore       Recommendation = "ignore"
	RecommendationHighPriority Recommendation = "high_priority"
)

// AnalysisResult records one scoring pass of a listing against a profile.
// The pipeline creates it once and may flip NotificationSent exactly once;
// the human-review fields belong to the review UI.
type AnalysisResult struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id" badgerhold:"index"`
	ProfileID string `json:"profile_id" badgerhold:"index"`

	MatchScore     float64        `json:"match_score"`
	Confidence     Confidence     `json:"confidence_level"`
	Reasoning      string         `json:"reasoning,omitempty"`
	KeyIndicators  []string       `json:"key_indicators,omitempty"`
	Concerns       []string       `json:"concerns,omitempty"`
	Recommendation Recommendation `json:"recommendation"`

	ModelUsed string `json:"model_used,omitempty"`

	NotificationSent   bool       `json:"notification_sent"`
	NotificationSentAt *time.Time `json:"notification_sent_at,omitempty"`

	// Review fields, owned by the review UI. Never written by the pipeline.
	ReviewedByHuman bool  `json:"reviewed_by_human"`
	IsFalsePositive *bool `json:"is_false_positive,omitempty"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// ShouldNotify reports whether this result qualifies for owner notification
// at the given threshold. Already-notified results never requalify.
func (r *AnalysisResult) ShouldNotify(threshold float64) bool {
	if r.NotificationSent {
		return false
	}
	return r.MatchScore >= threshold || r.Recommendation == RecommendationHighPriority
}
