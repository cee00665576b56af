package port

import (
	"context"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
)

// ListingSourcePort produces normalized listings for one (site, city)
// pair. Implemented by the live site session and by the fixture source.
type ListingSourcePort interface {
	SiteName() string

	// ScrapeCity walks search result pages for a city up to maxPages and
	// returns the listings it managed to collect. A page-level failure
	// returns the partial result together with the error.
	ScrapeCity(ctx context.Context, city string, maxPages int) ([]domain.NormalizedListing, error)
}
