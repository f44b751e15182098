package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

// AnalysisStorage implements the AnalysisStorage interface for Badger
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AnalysisStorage) SaveResult(ctx context.Context, result *models.AnalysisResult) error {
	if result.ListingID == "" || result.ProfileID == "" {
		return fmt.Errorf("analysis result requires listing and profile IDs")
	}
	if result.ID == "" {
		result.ID = common.NewResultID()
	}
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = time.Now()
	}

	if err := s.db.Store().Upsert(result.ID, result); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

func (s *AnalysisStorage) GetResult(ctx context.Context, id string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := s.db.Store().Get(id, &result); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("analysis result %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return &result, nil
}

func (s *AnalysisStorage) ResultsForListing(ctx context.Context, listingID string) ([]*models.AnalysisResult, error) {
	var results []models.AnalysisResult
	if err := s.db.Store().Find(&results, badgerhold.Where("ListingID").Eq(listingID)); err != nil {
		return nil, fmt.Errorf("failed to find analysis results: %w", err)
	}

	out := make([]*models.AnalysisResult, len(results))
	for i := range results {
		out[i] = &results[i]
	}
	return out, nil
}

// ListRecentResults returns results ordered newest first, capped at limit.
// A non-positive limit returns all results.
func (s *AnalysisStorage) ListRecentResults(ctx context.Context, limit int) ([]*models.AnalysisResult, error) {
	var results []models.AnalysisResult
	if err := s.db.Store().Find(&results, nil); err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].AnalyzedAt.After(results[j].AnalyzedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]*models.AnalysisResult, len(results))
	for i := range results {
		out[i] = &results[i]
	}
	return out, nil
}

func (s *AnalysisStorage) MarkNotificationSent(ctx context.Context, resultID string) error {
	result, err := s.GetResult(ctx, resultID)
	if err != nil {
		return err
	}

	// The flag is monotonic; a second mark is a no-op.
	if result.NotificationSent {
		return nil
	}

	now := time.Now()
	result.NotificationSent = true
	result.NotificationSentAt = &now

	if err := s.db.Store().Update(result.ID, result); err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}
