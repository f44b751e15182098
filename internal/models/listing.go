package models

import "time"

// ListingStatus tracks a listing through the scoring pipeline.
type ListingStatus string

const (
	ListingStatusNew        ListingStatus = "new"
	ListingStatusAnalyzed   ListingStatus = "analyzed"
	ListingStatusMatchFound ListingStatus = "match_found"
	ListingStatusIgnored    ListingStatus = "ignored"
)

// Listing is a single marketplace posting discovered by a scraper.
// The normalized URL is the natural key - the store enforces uniqueness,
// and the orchestrator treats a duplicate insert as "already seen".
type Listing struct {
	ID  string `json:"id"`
	URL string `json:"url" badgerhold:"index"` // normalized: no query string or fragment

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Location    string   `json:"location,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`

	Marketplace string `json:"marketplace" badgerhold:"index"`
	ExternalID  string `json:"external_id,omitempty"`

	Status ListingStatus `json:"status" badgerhold:"index"`

	CreatedAt time.Time `json:"created_at"`
	ScrapedAt time.Time `json:"scraped_at"`
}
