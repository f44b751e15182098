package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

// Orchestrator runs one monitoring cycle end to end: scrape every
// marketplace for every active profile, persist unseen listings, score
// them, and notify owners of matches.
type Orchestrator struct {
	storage    interfaces.StorageManager
	registry   interfaces.ScraperRegistry
	scorer     interfaces.MatchScorer
	dispatcher interfaces.Dispatcher
	config     *common.MonitorConfig
	logger     arbor.ILogger
}

// NewOrchestrator creates a monitoring cycle orchestrator
func NewOrchestrator(
	storage interfaces.StorageManager,
	registry interfaces.ScraperRegistry,
	scorer interfaces.MatchScorer,
	dispatcher interfaces.Dispatcher,
	config *common.MonitorConfig,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		storage:    storage,
		registry:   registry,
		scorer:     scorer,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
	}
}

// scrapeTask is one marketplace x profile unit of scrape work
type scrapeTask struct {
	marketplace string
	profile     *models.SearchProfile
}

// RunCycle executes one full monitoring cycle. It never panics and never
// returns an error past its boundary: every sub-failure is caught, logged
// and counted, and only a failure to load the profile set itself yields a
// summary with status error.
func (o *Orchestrator) RunCycle(ctx context.Context) (summary *models.CycleSummary) {
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Monitoring cycle panicked")
			summary = &models.CycleSummary{
				Status:      models.CycleStatusError,
				Error:       fmt.Sprintf("monitoring cycle panicked: %v", r),
				Duration:    time.Since(startTime),
				CompletedAt: time.Now(),
			}
		}
	}()

	profiles, err := o.storage.ProfileStorage().ActiveProfiles(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("Failed to load active profiles, aborting cycle")
		return &models.CycleSummary{
			Status:      models.CycleStatusError,
			Error:       fmt.Sprintf("failed to load active profiles: %v", err),
			Duration:    time.Since(startTime),
			CompletedAt: time.Now(),
		}
	}

	if len(profiles) == 0 {
		o.logger.Info().Msg("No active search profiles, skipping cycle")
		return &models.CycleSummary{
			Status:      models.CycleStatusCompleted,
			Duration:    time.Since(startTime),
			CompletedAt: time.Now(),
		}
	}

	marketplaces := o.registry.Marketplaces()
	o.logger.Info().
		Int("profiles", len(profiles)).
		Strs("marketplaces", marketplaces).
		Msg("Starting monitoring cycle")

	newListings, scrapeErrors := o.scrapePhase(ctx, profiles, marketplaces)

	matches, notifications := o.scorePhase(ctx, newListings, profiles)

	summary = &models.CycleSummary{
		Status:            models.CycleStatusCompleted,
		Profiles:          len(profiles),
		NewListings:       len(newListings),
		MatchesFound:      matches,
		NotificationsSent: notifications,
		ScrapeErrors:      scrapeErrors,
		Duration:          time.Since(startTime),
		CompletedAt:       time.Now(),
	}

	o.logger.Info().
		Int("new_listings", summary.NewListings).
		Int("matches_found", summary.MatchesFound).
		Int("notifications_sent", summary.NotificationsSent).
		Int("scrape_errors", summary.ScrapeErrors).
		Dur("duration", summary.Duration).
		Msg("Monitoring cycle completed")

	return summary
}

// scrapePhase fans scrape tasks out over marketplace x profile pairs and
// persists the listings no other cycle has seen. Returns the listings this
// cycle inserted plus the count of failed scrape tasks.
func (o *Orchestrator) scrapePhase(ctx context.Context, profiles []*models.SearchProfile, marketplaces []string) ([]*models.Listing, int) {
	// Snapshot taken once before fan-out; the store's uniqueness
	// constraint resolves races the snapshot cannot see.
	knownURLs, err := o.storage.ListingStorage().KnownURLs(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to load known URLs, relying on store uniqueness only")
		knownURLs = map[string]struct{}{}
	}

	var (
		mu          sync.Mutex
		newListings []*models.Listing
	)

	pool := NewPool(ctx, o.config.MaxConcurrentScrapers, o.logger)
	pool.Start()

	for _, marketplace := range marketplaces {
		for _, profile := range profiles {
			task := scrapeTask{marketplace: marketplace, profile: profile}
			if err := pool.Submit(func(taskCtx context.Context) error {
				discovered, err := o.runScrapeTask(taskCtx, task, knownURLs)
				if err != nil {
					return fmt.Errorf("scrape %s for profile %s: %w", task.marketplace, task.profile.ID, err)
				}
				mu.Lock()
				newListings = append(newListings, discovered...)
				mu.Unlock()
				return nil
			}); err != nil {
				o.logger.Warn().Err(err).Msg("Failed to submit scrape task")
			}
		}
	}

	pool.Wait()

	return newListings, len(pool.Errors())
}

// runScrapeTask performs one marketplace search and persists unseen
// listings. The session is closed on every exit path.
func (o *Orchestrator) runScrapeTask(ctx context.Context, task scrapeTask, knownURLs map[string]struct{}) ([]*models.Listing, error) {
	scraper, err := o.registry.Scraper(task.marketplace)
	if err != nil {
		return nil, err
	}

	session, err := scraper.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	query := task.profile.SearchQuery()
	listings, err := session.Search(ctx, query, task.profile.Location)
	if err != nil {
		return nil, err
	}

	o.logger.Debug().
		Str("marketplace", task.marketplace).
		Str("profile_id", task.profile.ID).
		Str("query", query).
		Int("listings", len(listings)).
		Msg("Scrape task finished")

	var inserted []*models.Listing
	for _, listing := range listings {
		normalized, err := common.NormalizeListingURL(listing.URL)
		if err != nil {
			o.logger.Warn().Err(err).Str("marketplace", task.marketplace).Msg("Dropping listing with bad URL")
			continue
		}
		listing.URL = normalized

		if _, seen := knownURLs[normalized]; seen {
			continue
		}

		listing.Marketplace = task.marketplace
		if err := o.storage.ListingStorage().InsertListing(ctx, listing); err != nil {
			// A concurrent sibling task won the insert; not new, not an error.
			if errors.Is(err, interfaces.ErrDuplicateURL) {
				continue
			}
			o.logger.Error().Err(err).Str("url", normalized).Msg("Failed to persist listing")
			continue
		}
		inserted = append(inserted, listing)
	}

	return inserted, nil
}

// scorePhase scores every new listing against every active profile,
// transitions listing statuses, and dispatches notifications for matches.
// Returns the match count and the notification count.
func (o *Orchestrator) scorePhase(ctx context.Context, newListings []*models.Listing, profiles []*models.SearchProfile) (int, int) {
	if len(newListings) == 0 {
		return 0, 0
	}

	var (
		mu            sync.Mutex
		matches       int
		notifications int
		matchedIDs    = make(map[string]struct{})
	)

	pool := NewPool(ctx, o.config.MaxConcurrentScrapers, o.logger)
	pool.Start()

	for _, listing := range newListings {
		for _, profile := range profiles {
			listing, profile := listing, profile
			if err := pool.Submit(func(taskCtx context.Context) error {
				matched, notified := o.scorePair(taskCtx, listing, profile, &mu, matchedIDs)
				mu.Lock()
				if matched {
					matches++
				}
				if notified {
					notifications++
				}
				mu.Unlock()
				return nil
			}); err != nil {
				o.logger.Warn().Err(err).Msg("Failed to submit scoring task")
			}
		}
	}

	pool.Wait()

	return matches, notifications
}

// scorePair scores one listing/profile pair, persists the result, applies
// the status transition and dispatches a notification when warranted.
func (o *Orchestrator) scorePair(ctx context.Context, listing *models.Listing, profile *models.SearchProfile, mu *sync.Mutex, matchedIDs map[string]struct{}) (matched, notified bool) {
	result := o.scorer.Score(ctx, listing, profile)
	if result == nil {
		// The scorer contract says this cannot happen; guard anyway.
		o.logger.Warn().Str("listing_id", listing.ID).Msg("Scorer returned nil result")
		return false, false
	}
	result.ListingID = listing.ID
	result.ProfileID = profile.ID

	if err := o.storage.AnalysisStorage().SaveResult(ctx, result); err != nil {
		o.logger.Error().Err(err).Str("listing_id", listing.ID).Msg("Failed to persist analysis result")
		return false, false
	}

	isMatch := result.MatchScore >= o.config.MatchThreshold

	// Status is monotonic within a cycle: once any pass marks the listing
	// match_found, a lower score never downgrades it. The check and the
	// write stay under one lock so a slow low-score update cannot land
	// after a faster match.
	mu.Lock()
	_, alreadyMatched := matchedIDs[listing.ID]
	if isMatch {
		matchedIDs[listing.ID] = struct{}{}
	}
	if isMatch || !alreadyMatched {
		status := models.ListingStatusAnalyzed
		if isMatch {
			status = models.ListingStatusMatchFound
		}
		if err := o.storage.ListingStorage().UpdateListingStatus(ctx, listing.ID, status); err != nil {
			o.logger.Error().Err(err).Str("listing_id", listing.ID).Msg("Failed to update listing status")
		}
	}
	mu.Unlock()

	if !result.ShouldNotify(o.config.MatchThreshold) {
		return isMatch, false
	}

	sent, err := o.dispatcher.Dispatch(ctx, listing, profile, result)
	if err != nil {
		o.logger.Error().Err(err).Str("result_id", result.ID).Msg("Notification dispatch reported an error")
	}

	return isMatch, sent
}
