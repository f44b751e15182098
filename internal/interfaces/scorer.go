package interfaces

import (
	"context"

	"github.com/ossa-ma/recovrr/internal/models"
)

// MatchScorer evaluates how well a listing matches a search profile.
// Implementations must never fail the pipeline: on provider errors they
// return a degraded result (score 0, low confidence, ignore) instead of
// an error so scoring problems never drop listings.
type MatchScorer interface {
	Score(ctx context.Context, listing *models.Listing, profile *models.SearchProfile) *models.AnalysisResult
	ModelName() string
}
