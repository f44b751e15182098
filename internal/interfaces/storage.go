package interfaces

import (
	"context"
	"errors"

	"github.com/ossa-ma/recovrr/internal/models"
)

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("not found")

// ErrDuplicateURL is returned by InsertListing when a listing with the same
// normalized URL already exists. Callers must treat this as "not new",
// never as a failure, and must be able to tell it apart from ErrNotFound
// and other storage errors via errors.Is.
var ErrDuplicateURL = errors.New("listing URL already exists")

// ProfileStorage provides read access to search profiles plus the upsert
// used by the seed loader. The pipeline itself never mutates profiles.
type ProfileStorage interface {
	ActiveProfiles(ctx context.Context) ([]*models.SearchProfile, error)
	GetProfile(ctx context.Context, id string) (*models.SearchProfile, error)
	SaveProfile(ctx context.Context, profile *models.SearchProfile) error
}

// ListingStorage is keyed CRUD for marketplace listings with URL
// uniqueness semantics.
type ListingStorage interface {
	// InsertListing stores a listing. Returns ErrDuplicateURL when the
	// normalized URL is already known.
	InsertListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	GetListingByURL(ctx context.Context, url string) (*models.Listing, error)
	// KnownURLs returns the set of normalized URLs already in the store.
	KnownURLs(ctx context.Context) (map[string]struct{}, error)
	UpdateListingStatus(ctx context.Context, id string, status models.ListingStatus) error
}

// AnalysisStorage persists scoring results and the one-shot notification flag.
type AnalysisStorage interface {
	SaveResult(ctx context.Context, result *models.AnalysisResult) error
	GetResult(ctx context.Context, id string) (*models.AnalysisResult, error)
	ResultsForListing(ctx context.Context, listingID string) ([]*models.AnalysisResult, error)
	// ListRecentResults returns the newest results first, at most limit.
	ListRecentResults(ctx context.Context, limit int) ([]*models.AnalysisResult, error)
	// MarkNotificationSent flips the notification_sent flag. The flag is
	// monotonic: once set it is never cleared.
	MarkNotificationSent(ctx context.Context, resultID string) error
}

// StorageManager aggregates the per-entity storages over one database.
type StorageManager interface {
	ProfileStorage() ProfileStorage
	ListingStorage() ListingStorage
	AnalysisStorage() AnalysisStorage
	// LoadProfilesFromFiles seeds profile storage from YAML files in dir.
	LoadProfilesFromFiles(ctx context.Context, dir string) error
	Close() error
}
