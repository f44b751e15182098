package scrapers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

const (
	ebayBaseURL   = "https://www.ebay.com"
	ebaySearchURL = ebayBaseURL + "/sch/i.html"
)

// EbayScraper scrapes eBay search result pages over plain HTTP.
type EbayScraper struct {
	config *common.ScrapersConfig
	logger arbor.ILogger
}

// NewEbayScraper creates a new eBay scraper
func NewEbayScraper(config *common.ScrapersConfig, logger arbor.ILogger) *EbayScraper {
	return &EbayScraper{
		config: config,
		logger: logger,
	}
}

// Marketplace returns the marketplace identifier
func (s *EbayScraper) Marketplace() string {
	return MarketplaceEbay
}

// NewSession opens an HTTP scraping session. Sessions are cheap; one is
// opened per scrape task and closed when the task finishes.
func (s *EbayScraper) NewSession(ctx context.Context) (interfaces.ScraperSession, error) {
	delay := s.config.RequestDelay
	if delay <= 0 {
		delay = time.Second
	}

	return &ebaySession{
		client: &http.Client{
			Timeout: s.config.RequestTimeout,
		},
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		userAgent:  s.config.UserAgent,
		maxResults: s.config.MaxResults,
		logger:     s.logger,
	}, nil
}

type ebaySession struct {
	client     *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxResults int
	logger     arbor.ILogger
}

func (s *ebaySession) Search(ctx context.Context, query string, location string) ([]*models.Listing, error) {
	params := url.Values{}
	params.Set("_nkw", query)
	params.Set("_sacat", "0")     // All categories
	params.Set("LH_Sold", "0")    // Active listings only
	params.Set("LH_Complete", "0")
	params.Set("_sop", "10") // Sort by newest first

	if location != "" {
		params.Set("_fspt", "1")
		params.Set("_sadis", "25") // 25 mile radius
		params.Set("_stpos", location)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s?%s", ebaySearchURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create eBay request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eBay search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eBay search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse eBay results page: %w", err)
	}

	return s.parseSearchResults(doc), nil
}

func (s *ebaySession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// parseSearchResults extracts listings from an eBay search results page
func (s *ebaySession) parseSearchResults(doc *goquery.Document) []*models.Listing {
	var listings []*models.Listing

	doc.Find("li.s-card").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		listing := s.parseListing(card)
		if listing != nil {
			listings = append(listings, listing)
		}
		return s.maxResults <= 0 || len(listings) < s.maxResults
	})

	return listings
}

// parseListing extracts one listing from a result card. Cards without a
// title or URL are skipped; eBay pads result pages with promo tiles that
// share the card markup.
func (s *ebaySession) parseListing(card *goquery.Selection) *models.Listing {
	title := cleanText(card.Find("span.su-styled-text.primary.default").First().Text())
	if title == "" {
		return nil
	}

	href, ok := card.Find("a.su-card-container__header").First().Attr("href")
	if !ok || href == "" {
		return nil
	}

	listing := &models.Listing{
		URL:         href,
		Title:       title,
		Marketplace: MarketplaceEbay,
		ExternalID:  ebayItemID(href),
		Status:      models.ListingStatusNew,
		ScrapedAt:   time.Now(),
	}

	priceText := card.Find("span.s-card__price").First().Text()
	listing.Price = cleanPrice(priceText)

	card.Find("span.su-styled-text.secondary.small").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if text := span.Text(); strings.Contains(text, "Located in") {
			listing.Location = cleanText(text)
			return false
		}
		return true
	})

	if src, ok := card.Find("img.s-card__image").First().Attr("src"); ok && src != "" {
		listing.ImageURLs = []string{src}
	}

	listing.Description = cleanText(card.Find("span.su-styled-text.secondary.default").First().Text())

	return listing
}

// ebayItemID extracts the eBay item ID from a listing URL
func ebayItemID(rawURL string) string {
	if idx := strings.Index(rawURL, "/itm/"); idx >= 0 {
		id := rawURL[idx+len("/itm/"):]
		if q := strings.IndexByte(id, '?'); q >= 0 {
			id = id[:q]
		}
		return strings.Trim(id, "/")
	}
	trimmed := strings.TrimRight(rawURL, "/")
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
