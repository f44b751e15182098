package scrapers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
)

// Registry maps marketplace identifiers to scraper factories.
// Identifiers are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]interfaces.ScraperFactory
}

// NewRegistry creates an empty scraper registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]interfaces.ScraperFactory),
	}
}

// NewDefaultRegistry creates a registry with the built-in marketplace
// scrapers, restricted to the enabled list from configuration.
func NewDefaultRegistry(config *common.ScrapersConfig, logger arbor.ILogger) *Registry {
	registry := NewRegistry()
	for _, marketplace := range config.Enabled {
		switch strings.ToLower(strings.TrimSpace(marketplace)) {
		case MarketplaceEbay:
			registry.Register(MarketplaceEbay, func() interfaces.Scraper {
				return NewEbayScraper(config, logger)
			})
		case MarketplaceFacebook:
			registry.Register(MarketplaceFacebook, func() interfaces.Scraper {
				return NewFacebookScraper(config, logger)
			})
		default:
			logger.Warn().Str("marketplace", marketplace).Msg("Unknown marketplace in scrapers.enabled, skipping")
		}
	}
	return registry
}

// Register adds or replaces a scraper factory for a marketplace
func (r *Registry) Register(marketplace string, factory interfaces.ScraperFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(strings.TrimSpace(marketplace))] = factory
}

// Scraper returns a fresh scraper for the marketplace, or
// ErrUnsupportedMarketplace when none is registered.
func (r *Registry) Scraper(marketplace string) (interfaces.Scraper, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(marketplace))]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", marketplace, interfaces.ErrUnsupportedMarketplace)
	}
	return factory(), nil
}

// Marketplaces returns the registered marketplace identifiers, sorted
func (r *Registry) Marketplaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
