package models

import "time"

// CycleStatus is the terminal status of one monitoring cycle.
type CycleStatus string

const (
	CycleStatusCompleted CycleStatus = "completed"
	CycleStatusError     CycleStatus = "error"
)

// CycleSummary aggregates the outcome of one scrape/score/notify cycle.
// Counts are reported even when individual sub-operations failed; only a
// failure to load the profile set yields CycleStatusError.
type CycleSummary struct {
	Status            CycleStatus   `json:"status"`
	Profiles          int           `json:"search_profiles"`
	NewListings       int           `json:"new_listings"`
	MatchesFound      int           `json:"matches_found"`
	NotificationsSent int           `json:"notifications_sent"`
	ScrapeErrors      int           `json:"scrape_errors"`
	Duration          time.Duration `json:"duration"`
	Error             string        `json:"error,omitempty"`
	CompletedAt       time.Time     `json:"completed_at"`
}
