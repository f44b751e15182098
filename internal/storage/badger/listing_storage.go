package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

// ListingStorage implements the ListingStorage interface for Badger.
// URL uniqueness is enforced here, not in the pipeline: listings are keyed
// by their normalized URL so a second insert of the same URL fails at the
// store regardless of which scrape task got there first.
type ListingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewListingStorage creates a new ListingStorage instance
func NewListingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ListingStorage {
	return &ListingStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ListingStorage) InsertListing(ctx context.Context, listing *models.Listing) error {
	if listing.URL == "" {
		return fmt.Errorf("listing URL is required")
	}
	if listing.ID == "" {
		listing.ID = common.NewListingID()
	}
	if listing.Status == "" {
		listing.Status = models.ListingStatusNew
	}

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	if listing.ScrapedAt.IsZero() {
		listing.ScrapedAt = now
	}

	// Keyed by URL: Insert (not Upsert) makes a duplicate URL a key clash.
	if err := s.db.Store().Insert(listing.URL, listing); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("listing %s: %w", listing.URL, interfaces.ErrDuplicateURL)
		}
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

func (s *ListingStorage) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var listings []models.Listing
	if err := s.db.Store().Find(&listings, badgerhold.Where("ID").Eq(id)); err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("listing %s: %w", id, interfaces.ErrNotFound)
	}
	return &listings[0], nil
}

func (s *ListingStorage) GetListingByURL(ctx context.Context, url string) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.Store().Get(url, &listing); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("listing %s: %w", url, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get listing by URL: %w", err)
	}
	return &listing, nil
}

func (s *ListingStorage) KnownURLs(ctx context.Context) (map[string]struct{}, error) {
	var listings []models.Listing
	if err := s.db.Store().Find(&listings, nil); err != nil {
		return nil, fmt.Errorf("failed to load known URLs: %w", err)
	}

	urls := make(map[string]struct{}, len(listings))
	for i := range listings {
		urls[listings[i].URL] = struct{}{}
	}
	return urls, nil
}

func (s *ListingStorage) UpdateListingStatus(ctx context.Context, id string, status models.ListingStatus) error {
	listing, err := s.GetListing(ctx, id)
	if err != nil {
		return err
	}

	listing.Status = status
	if err := s.db.Store().Update(listing.URL, listing); err != nil {
		return fmt.Errorf("failed to update listing status: %w", err)
	}
	return nil
}
