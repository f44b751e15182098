package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

// memoryStorage is an in-memory StorageManager safe for concurrent use.
type memoryStorage struct {
	mu          sync.Mutex
	profiles    []*models.SearchProfile
	listings    map[string]*models.Listing // keyed by URL
	results     map[string]*models.AnalysisResult
	profilesErr   error
	profilesPanic bool
	nextID        int
}

func newMemoryStorage(profiles ...*models.SearchProfile) *memoryStorage {
	return &memoryStorage{
		profiles: profiles,
		listings: make(map[string]*models.Listing),
		results:  make(map[string]*models.AnalysisResult),
	}
}

func (m *memoryStorage) ProfileStorage() interfaces.ProfileStorage   { return m }
func (m *memoryStorage) ListingStorage() interfaces.ListingStorage   { return m }
func (m *memoryStorage) AnalysisStorage() interfaces.AnalysisStorage { return m }
func (m *memoryStorage) LoadProfilesFromFiles(ctx context.Context, dir string) error {
	return nil
}
func (m *memoryStorage) Close() error { return nil }

func (m *memoryStorage) ActiveProfiles(ctx context.Context) ([]*models.SearchProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profilesPanic {
		panic("profile storage exploded")
	}
	if m.profilesErr != nil {
		return nil, m.profilesErr
	}
	var active []*models.SearchProfile
	for _, p := range m.profiles {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

func (m *memoryStorage) GetProfile(ctx context.Context, id string) (*models.SearchProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStorage) SaveProfile(ctx context.Context, profile *models.SearchProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, profile)
	return nil
}

func (m *memoryStorage) InsertListing(ctx context.Context, listing *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.listings[listing.URL]; exists {
		return fmt.Errorf("listing %s: %w", listing.URL, interfaces.ErrDuplicateURL)
	}
	if listing.ID == "" {
		m.nextID++
		listing.ID = fmt.Sprintf("lst_%d", m.nextID)
	}
	if listing.Status == "" {
		listing.Status = models.ListingStatusNew
	}
	m.listings[listing.URL] = listing
	return nil
}

func (m *memoryStorage) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStorage) GetListingByURL(ctx context.Context, url string) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.listings[url]; ok {
		return l, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStorage) KnownURLs(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	known := make(map[string]struct{}, len(m.listings))
	for url := range m.listings {
		known[url] = struct{}{}
	}
	return known, nil
}

func (m *memoryStorage) UpdateListingStatus(ctx context.Context, id string, status models.ListingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listings {
		if l.ID == id {
			l.Status = status
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (m *memoryStorage) SaveResult(ctx context.Context, result *models.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result.ID == "" {
		m.nextID++
		result.ID = fmt.Sprintf("res_%d", m.nextID)
	}
	m.results[result.ID] = result
	return nil
}

func (m *memoryStorage) GetResult(ctx context.Context, id string) (*models.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.results[id]; ok {
		return r, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStorage) ResultsForListing(ctx context.Context, listingID string) ([]*models.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnalysisResult
	for _, r := range m.results {
		if r.ListingID == listingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStorage) ListRecentResults(ctx context.Context, limit int) ([]*models.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnalysisResult
	for _, r := range m.results {
		out = append(out, r)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStorage) MarkNotificationSent(ctx context.Context, resultID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.results[resultID]; ok {
		r.NotificationSent = true
		return nil
	}
	return interfaces.ErrNotFound
}

// stubScraper serves canned listings for one marketplace.
type stubScraper struct {
	marketplace string
	listings    []*models.Listing
	searchErr   error
	sessionErr  error
}

func (s *stubScraper) Marketplace() string { return s.marketplace }

func (s *stubScraper) NewSession(ctx context.Context) (interfaces.ScraperSession, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return &stubSession{scraper: s}, nil
}

type stubSession struct {
	scraper *stubScraper
}

func (s *stubSession) Search(ctx context.Context, query, location string) ([]*models.Listing, error) {
	if s.scraper.searchErr != nil {
		return nil, s.scraper.searchErr
	}
	// Fresh copies so each task can mutate its own listings
	out := make([]*models.Listing, len(s.scraper.listings))
	for i, l := range s.scraper.listings {
		copied := *l
		out[i] = &copied
	}
	return out, nil
}

func (s *stubSession) Close() error { return nil }

// stubRegistry serves stub scrapers in a stable order.
type stubRegistry struct {
	scrapers []*stubScraper
}

func (r *stubRegistry) Register(marketplace string, factory interfaces.ScraperFactory) {}

func (r *stubRegistry) Scraper(marketplace string) (interfaces.Scraper, error) {
	for _, s := range r.scrapers {
		if s.marketplace == marketplace {
			return s, nil
		}
	}
	return nil, interfaces.ErrUnsupportedMarketplace
}

func (r *stubRegistry) Marketplaces() []string {
	names := make([]string, len(r.scrapers))
	for i, s := range r.scrapers {
		names[i] = s.marketplace
	}
	return names
}

// stubScorer returns a fixed score per listing URL substring.
type stubScorer struct {
	mu     sync.Mutex
	scores map[string]float64 // URL substring -> score
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, listing *models.Listing, profile *models.SearchProfile) *models.AnalysisResult {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	score := 0.0
	for substr, v := range s.scores {
		if strings.Contains(listing.URL, substr) {
			score = v
			break
		}
	}

	rec := models.RecommendationIgnore
	if score >= 7.0 {
		rec = models.RecommendationInvestigate
	}
	return &models.AnalysisResult{
		MatchScore:     score,
		Confidence:     models.ConfidenceMedium,
		Reasoning:      "stub",
		Recommendation: rec,
	}
}

func (s *stubScorer) ModelName() string { return "stub-model" }

// stubDispatcher records dispatched results.
type stubDispatcher struct {
	mu      sync.Mutex
	storage *memoryStorage
	sent    []string
}

func (d *stubDispatcher) Dispatch(ctx context.Context, listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if result.NotificationSent {
		return false, nil
	}
	d.sent = append(d.sent, result.ID)
	if d.storage != nil {
		_ = d.storage.MarkNotificationSent(ctx, result.ID)
	}
	result.NotificationSent = true
	return true, nil
}

func activeProfile(id string) *models.SearchProfile {
	return &models.SearchProfile{
		ID:         id,
		Name:       "Stolen bike " + id,
		Make:       "Trek",
		Model:      "Domane",
		OwnerEmail: "owner@example.com",
		Active:     true,
	}
}

func testMonitorConfig() *common.MonitorConfig {
	return &common.MonitorConfig{
		ScrapeIntervalMinutes: 30,
		MaxConcurrentScrapers: 3,
		MatchThreshold:        7.0,
		SMSThreshold:          8.0,
	}
}

func newTestOrchestrator(storage *memoryStorage, registry *stubRegistry, scorer interfaces.MatchScorer, dispatcher *stubDispatcher) *Orchestrator {
	return NewOrchestrator(storage, registry, scorer, dispatcher, testMonitorConfig(), arbor.NewLogger())
}

func TestRunCycle_HappyPath(t *testing.T) {
	storage := newMemoryStorage(activeProfile("prf_1"))
	registry := &stubRegistry{scrapers: []*stubScraper{{
		marketplace: "ebay",
		listings: []*models.Listing{
			{URL: "https://www.ebay.com/itm/match", Title: "Trek Domane"},
			{URL: "https://www.ebay.com/itm/miss", Title: "Something else"},
		},
	}}}
	scorer := &stubScorer{scores: map[string]float64{"match": 9.0, "miss": 3.0}}
	dispatcher := &stubDispatcher{storage: storage}

	orch := newTestOrchestrator(storage, registry, scorer, dispatcher)
	summary := orch.RunCycle(context.Background())

	assert.Equal(t, models.CycleStatusCompleted, summary.Status)
	assert.Equal(t, 1, summary.Profiles)
	assert.Equal(t, 2, summary.NewListings)
	assert.Equal(t, 1, summary.MatchesFound)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, 0, summary.ScrapeErrors)

	matched, err := storage.GetListingByURL(context.Background(), "https://www.ebay.com/itm/match")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusMatchFound, matched.Status)

	missed, err := storage.GetListingByURL(context.Background(), "https://www.ebay.com/itm/miss")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusAnalyzed, missed.Status)
}

func TestRunCycle_SecondCycleIsQuiet(t *testing.T) {
	storage := newMemoryStorage(activeProfile("prf_1"))
	registry := &stubRegistry{scrapers: []*stubScraper{{
		marketplace: "ebay",
		listings: []*models.Listing{
			{URL: "https://www.ebay.com/itm/match", Title: "Trek Domane"},
		},
	}}}
	scorer := &stubScorer{scores: map[string]float64{"match": 9.0}}
	dispatcher := &stubDispatcher{storage: storage}

	orch := newTestOrchestrator(storage, registry, scorer, dispatcher)

	first := orch.RunCycle(context.Background())
	assert.Equal(t, 1, first.NewListings)
	assert.Equal(t, 1, first.NotificationsSent)

	// The same listing reappearing in the next search is not new and is
	// neither rescored nor re-announced.
	second := orch.RunCycle(context.Background())
	assert.Equal(t, 0, second.NewListings)
	assert.Equal(t, 0, second.MatchesFound)
	assert.Equal(t, 0, second.NotificationsSent)
	assert.Len(t, dispatcher.sent, 1)
}

func TestRunCycle_DuplicateAcrossProfiles(t *testing.T) {
	// Two profiles search the same marketplace and surface the same URL;
	// the store keeps exactly one listing but both profiles score it.
	storage := newMemoryStorage(activeProfile("prf_1"), activeProfile("prf_2"))
	registry := &stubRegistry{scrapers: []*stubScraper{{
		marketplace: "ebay",
		listings: []*models.Listing{
			{URL: "https://www.ebay.com/itm/shared", Title: "Trek Domane"},
		},
	}}}
	scorer := &stubScorer{scores: map[string]float64{"shared": 2.0}}
	dispatcher := &stubDispatcher{storage: storage}

	orch := newTestOrchestrator(storage, registry, scorer, dispatcher)
	summary := orch.RunCycle(context.Background())

	assert.Equal(t, 1, summary.NewListings)
	assert.Len(t, storage.listings, 1)
	// One new listing scored against both active profiles
	assert.Equal(t, 2, scorer.calls)
	assert.Len(t, storage.results, 2)
}

func TestRunCycle_ProfileLoadFailure(t *testing.T) {
	storage := newMemoryStorage()
	storage.profilesErr = fmt.Errorf("database closed")

	orch := newTestOrchestrator(storage, &stubRegistry{}, &stubScorer{}, &stubDispatcher{})
	summary := orch.RunCycle(context.Background())

	assert.Equal(t, models.CycleStatusError, summary.Status)
	assert.Contains(t, summary.Error, "database closed")
}

func TestRunCycle_PanicYieldsErrorSummary(t *testing.T) {
	storage := newMemoryStorage()
	storage.profilesPanic = true

	orch := newTestOrchestrator(storage, &stubRegistry{}, &stubScorer{}, &stubDispatcher{})

	var summary *models.CycleSummary
	require.NotPanics(t, func() {
		summary = orch.RunCycle(context.Background())
	})

	require.NotNil(t, summary)
	assert.Equal(t, models.CycleStatusError, summary.Status)
	assert.Contains(t, summary.Error, "profile storage exploded")
	assert.False(t, summary.CompletedAt.IsZero())
}

func TestRunCycle_NoActiveProfiles(t *testing.T) {
	inactive := activeProfile("prf_1")
	inactive.Active = false
	storage := newMemoryStorage(inactive)

	orch := newTestOrchestrator(storage, &stubRegistry{}, &stubScorer{}, &stubDispatcher{})
	summary := orch.RunCycle(context.Background())

	assert.Equal(t, models.CycleStatusCompleted, summary.Status)
	assert.Equal(t, 0, summary.Profiles)
	assert.Equal(t, 0, summary.NewListings)
}

func TestRunCycle_ScrapeFailureIsolation(t *testing.T) {
	// One marketplace failing must not stop the other from producing
	// listings, scores and notifications.
	storage := newMemoryStorage(activeProfile("prf_1"))
	registry := &stubRegistry{scrapers: []*stubScraper{
		{marketplace: "facebook", searchErr: fmt.Errorf("browser crashed")},
		{
			marketplace: "ebay",
			listings: []*models.Listing{
				{URL: "https://www.ebay.com/itm/match", Title: "Trek Domane"},
			},
		},
	}}
	scorer := &stubScorer{scores: map[string]float64{"match": 8.0}}
	dispatcher := &stubDispatcher{storage: storage}

	orch := newTestOrchestrator(storage, registry, scorer, dispatcher)
	summary := orch.RunCycle(context.Background())

	assert.Equal(t, models.CycleStatusCompleted, summary.Status)
	assert.Equal(t, 1, summary.ScrapeErrors)
	assert.Equal(t, 1, summary.NewListings)
	assert.Equal(t, 1, summary.MatchesFound)
	assert.Equal(t, 1, summary.NotificationsSent)
}

func TestRunCycle_SessionFailureCounted(t *testing.T) {
	storage := newMemoryStorage(activeProfile("prf_1"))
	registry := &stubRegistry{scrapers: []*stubScraper{
		{marketplace: "facebook", sessionErr: fmt.Errorf("chrome not found")},
	}}

	orch := newTestOrchestrator(storage, registry, &stubScorer{}, &stubDispatcher{})
	summary := orch.RunCycle(context.Background())

	assert.Equal(t, models.CycleStatusCompleted, summary.Status)
	assert.Equal(t, 1, summary.ScrapeErrors)
	assert.Equal(t, 0, summary.NewListings)
}

func TestRunCycle_MatchNeverDowngraded(t *testing.T) {
	// Two profiles score the same listing on opposite sides of the
	// threshold; whichever order the scores land in, the listing ends up
	// match_found.
	for i := 0; i < 5; i++ {
		storage := newMemoryStorage(activeProfile("prf_hit"), activeProfile("prf_miss"))
		registry := &stubRegistry{scrapers: []*stubScraper{{
			marketplace: "ebay",
			listings: []*models.Listing{
				{URL: "https://www.ebay.com/itm/contested", Title: "Trek Domane"},
			},
		}}}
		scorer := &splitScorer{hitProfile: "prf_hit"}
		dispatcher := &stubDispatcher{storage: storage}

		orch := newTestOrchestrator(storage, registry, scorer, dispatcher)
		orch.RunCycle(context.Background())

		listing, err := storage.GetListingByURL(context.Background(), "https://www.ebay.com/itm/contested")
		require.NoError(t, err)
		assert.Equal(t, models.ListingStatusMatchFound, listing.Status)
	}
}

// splitScorer scores above the threshold for one profile and below it for
// all others.
type splitScorer struct {
	hitProfile string
}

func (s *splitScorer) Score(ctx context.Context, listing *models.Listing, profile *models.SearchProfile) *models.AnalysisResult {
	score := 2.0
	rec := models.RecommendationIgnore
	if profile.ID == s.hitProfile {
		score = 9.0
		rec = models.RecommendationInvestigate
	}
	return &models.AnalysisResult{
		MatchScore:     score,
		Confidence:     models.ConfidenceMedium,
		Reasoning:      "stub",
		Recommendation: rec,
	}
}

func (s *splitScorer) ModelName() string { return "stub-model" }

func TestRunCycle_BadURLDropped(t *testing.T) {
	storage := newMemoryStorage(activeProfile("prf_1"))
	registry := &stubRegistry{scrapers: []*stubScraper{{
		marketplace: "ebay",
		listings: []*models.Listing{
			{URL: "not a url", Title: "Broken"},
			{URL: "https://www.ebay.com/itm/ok?tracking=1", Title: "Trek Domane"},
		},
	}}}
	scorer := &stubScorer{scores: map[string]float64{}}

	orch := newTestOrchestrator(storage, registry, scorer, &stubDispatcher{storage: storage})
	summary := orch.RunCycle(context.Background())

	assert.Equal(t, 1, summary.NewListings)

	// Insertion happens under the normalized URL
	listing, err := storage.GetListingByURL(context.Background(), "https://www.ebay.com/itm/ok")
	require.NoError(t, err)
	assert.Equal(t, "Trek Domane", listing.Title)
}
