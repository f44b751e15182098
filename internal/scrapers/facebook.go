package scrapers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

const facebookMarketplaceURL = "https://www.facebook.com/marketplace"

// FacebookScraper scrapes Facebook Marketplace through a headless browser.
// Marketplace search results are rendered client-side, so a plain HTTP
// fetch returns an empty shell.
type FacebookScraper struct {
	config *common.ScrapersConfig
	logger arbor.ILogger
}

// NewFacebookScraper creates a new Facebook Marketplace scraper
func NewFacebookScraper(config *common.ScrapersConfig, logger arbor.ILogger) *FacebookScraper {
	return &FacebookScraper{
		config: config,
		logger: logger,
	}
}

// Marketplace returns the marketplace identifier
func (s *FacebookScraper) Marketplace() string {
	return MarketplaceFacebook
}

// NewSession launches a browser for this scrape task. The session owns the
// browser process; Close releases it.
func (s *FacebookScraper) NewSession(ctx context.Context) (interfaces.ScraperSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(s.config.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so a missing Chrome binary fails the session
	// instead of the first search.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	delay := s.config.RequestDelay
	if delay <= 0 {
		delay = time.Second
	}

	s.logger.Debug().Bool("headless", s.config.Headless).Msg("Facebook scraper browser session started")

	return &facebookSession{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		maxResults: s.config.MaxResults,
		logger:     s.logger,
	}, nil
}

type facebookSession struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	limiter    *rate.Limiter
	maxResults int
	logger     arbor.ILogger
}

func (s *facebookSession) Search(ctx context.Context, query string, location string) ([]*models.Listing, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Marketplace search URL takes the query directly; location filtering
	// happens via the account's region, so the location argument only
	// narrows results when Facebook honors the query text.
	searchURL := fmt.Sprintf("%s/search/?query=%s", facebookMarketplaceURL, url.QueryEscape(query))

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		tabCtx, cancelDeadline = context.WithDeadline(tabCtx, deadline)
		defer cancelDeadline()
	}

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(searchURL),
		// Dynamic content keeps loading after the load event; give the
		// result grid time to render.
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("facebook marketplace search failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse facebook results page: %w", err)
	}

	return s.parseSearchResults(doc), nil
}

func (s *facebookSession) Close() error {
	s.cancel()
	s.logger.Debug().Msg("Facebook scraper browser session closed")
	return nil
}

// parseSearchResults extracts listings from a rendered Marketplace page.
// Facebook's class names are obfuscated and rotate, so parsing anchors on
// the stable /marketplace/item/ link shape instead.
func (s *facebookSession) parseSearchResults(doc *goquery.Document) []*models.Listing {
	var listings []*models.Listing
	seen := make(map[string]struct{})

	doc.Find(`a[href*="/marketplace/item/"]`).EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		listing := parseFacebookListing(anchor)
		if listing == nil {
			return true
		}
		if _, dup := seen[listing.URL]; dup {
			return true
		}
		seen[listing.URL] = struct{}{}
		listings = append(listings, listing)
		return s.maxResults <= 0 || len(listings) < s.maxResults
	})

	return listings
}

// parseFacebookListing extracts one listing from an item anchor. The card
// renders price, title and location as sibling text spans in that order.
func parseFacebookListing(anchor *goquery.Selection) *models.Listing {
	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return nil
	}
	if strings.HasPrefix(href, "/") {
		href = "https://www.facebook.com" + href
	}

	var price *float64
	var title, location string
	anchor.Find(`span[dir="auto"]`).Each(func(_ int, span *goquery.Selection) {
		text := cleanText(span.Text())
		if text == "" {
			return
		}
		switch {
		case price == nil && strings.ContainsAny(text, "$£€"):
			price = cleanPrice(text)
		case title == "":
			title = text
		case location == "":
			location = text
		}
	})

	if title == "" {
		return nil
	}

	listing := &models.Listing{
		URL:         href,
		Title:       title,
		Price:       price,
		Location:    location,
		Marketplace: MarketplaceFacebook,
		ExternalID:  facebookItemID(href),
		Status:      models.ListingStatusNew,
		ScrapedAt:   time.Now(),
	}

	if src, ok := anchor.Find("img").First().Attr("src"); ok && strings.Contains(src, "scontent") {
		listing.ImageURLs = []string{src}
	}

	return listing
}

// facebookItemID extracts the numeric item ID from a marketplace URL
func facebookItemID(rawURL string) string {
	idx := strings.Index(rawURL, "/marketplace/item/")
	if idx < 0 {
		return ""
	}
	id := rawURL[idx+len("/marketplace/item/"):]
	id = strings.Trim(id, "/")
	if q := strings.IndexByte(id, '?'); q >= 0 {
		id = id[:q]
	}
	if slash := strings.IndexByte(id, '/'); slash >= 0 {
		id = id[:slash]
	}
	return id
}
