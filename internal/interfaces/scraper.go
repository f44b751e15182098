package interfaces

import (
	"context"
	"errors"

	"github.com/ossa-ma/recovrr/internal/models"
)

// ErrUnsupportedMarketplace is returned by the registry for an unknown
// marketplace identifier.
var ErrUnsupportedMarketplace = errors.New("unsupported marketplace")

// Scraper is a marketplace adapter. Implementations own connection details
// and anti-bot behavior; the pipeline only sees this contract.
type Scraper interface {
	Marketplace() string
	// NewSession opens a scraping session. The caller must Close the
	// session on every exit path.
	NewSession(ctx context.Context) (ScraperSession, error)
}

// ScraperSession is one scoped scraping session.
type ScraperSession interface {
	// Search returns candidate listings for the query. Returned listings
	// carry raw marketplace data; URL normalization and dedup happen in
	// the orchestrator.
	Search(ctx context.Context, query string, location string) ([]*models.Listing, error)
	Close() error
}

// ScraperFactory builds a fresh scraper instance for a marketplace.
type ScraperFactory func() Scraper

// ScraperRegistry maps marketplace identifiers to scrapers. Registration
// is additive; new marketplaces plug in without orchestrator changes.
type ScraperRegistry interface {
	Register(marketplace string, factory ScraperFactory)
	Scraper(marketplace string) (Scraper, error)
	Marketplaces() []string
}
