package port

import (
	"context"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"

	"github.com/google/uuid"
)

// ListingStoragePort owns the canonical listing table. It is the sole
// writer of identity and staleness fields.
type ListingStoragePort interface {
	// Upsert merges a normalized listing by (source_site, source_id).
	// Safe to call repeatedly with identical input.
	Upsert(ctx context.Context, listing domain.NormalizedListing) (domain.UpsertResult, error)

	// SweepDelisted marks listings of a site as delisted when they were
	// last seen before the threshold and are absent from activeIDs.
	// Returns the number of listings delisted.
	SweepDelisted(ctx context.Context, site string, activeIDs map[string]struct{}, threshold time.Duration) (int, error)
}

// PreferenceStoragePort reads saved search criteria.
type PreferenceStoragePort interface {
	// ActiveByCity returns active preferences whose city equals the given
	// city case-insensitively.
	ActiveByCity(ctx context.Context, city string) ([]domain.Preference, error)
}

// MatchStoragePort owns the match table.
type MatchStoragePort interface {
	// Insert stores a match unless one already exists for the
	// (user, listing) pair. Returns true when a row was written.
	Insert(ctx context.Context, match domain.Match) (bool, error)
}

// MatchQueuePort hands a committed match to the downstream notification
// dispatcher. Delivery mechanics are outside this worker.
type MatchQueuePort interface {
	PublishMatchCreated(ctx context.Context, matchID uuid.UUID, userID uuid.UUID, score float64) error
}
