package interfaces

import (
	"context"

	"github.com/ossa-ma/recovrr/internal/models"
)

// Notifier delivers a match alert over one channel (email, SMS).
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) error
}

// Dispatcher fans a match alert out to the channels appropriate for its
// severity and marks delivery in storage so repeat cycles stay quiet.
type Dispatcher interface {
	Dispatch(ctx context.Context, listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) (sent bool, err error)
}
