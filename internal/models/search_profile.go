package models

import (
	"strings"
	"time"
)

// SearchProfile describes an item an owner wants recovered. Profiles are
// created and edited by the management surface; the monitoring pipeline
// only ever reads them.
type SearchProfile struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// Item details
	Make           string `json:"make,omitempty" yaml:"make"`
	Model          string `json:"model,omitempty" yaml:"model"`
	Color          string `json:"color,omitempty" yaml:"color"`
	Size           string `json:"size,omitempty" yaml:"size"`
	Description    string `json:"description,omitempty" yaml:"description"`
	UniqueFeatures string `json:"unique_features,omitempty" yaml:"unique_features"`

	// Search parameters
	Location    string   `json:"location,omitempty" yaml:"location"`
	PriceMin    *float64 `json:"price_min,omitempty" yaml:"price_min"`
	PriceMax    *float64 `json:"price_max,omitempty" yaml:"price_max"`
	SearchTerms []string `json:"search_terms,omitempty" yaml:"search_terms"`

	// Owner contact
	OwnerEmail string `json:"owner_email" yaml:"owner_email"`
	OwnerPhone string `json:"owner_phone,omitempty" yaml:"owner_phone"`

	Active bool `json:"active" badgerhold:"index" yaml:"active"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// SearchQuery builds the marketplace search string for this profile:
// make, model, then auxiliary terms, order preserved, blanks skipped.
func (p *SearchProfile) SearchQuery() string {
	terms := make([]string, 0, len(p.SearchTerms)+2)
	for _, t := range append([]string{p.Make, p.Model}, p.SearchTerms...) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return strings.Join(terms, " ")
}
