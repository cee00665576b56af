package port

import "github.com/Robertosoftware/rentify-nl/internal/core/domain"

// SearchFilters narrows a search results page. Zero values mean "no bound".
type SearchFilters struct {
	MinPriceEUR int64
	MaxPriceEUR int64
}

// SiteAdapterPort is the per-source capability the generic session is
// parameterized with: URL construction plus markup parsing, nothing else.
// Implementations must be pure with respect to I/O.
type SiteAdapterPort interface {
	// SiteName returns the stable source identifier, e.g. "pararius".
	SiteName() string

	// BaseURL returns the scheme+host root the session uses for robots
	// checks and for resolving relative links.
	BaseURL() string

	// BuildSearchURL builds the fixed-template search results URL for a
	// city and 1-based page number.
	BuildSearchURL(city string, page int, filters SearchFilters) string

	// ParseSearchResults extracts listing previews from a results page.
	// An empty slice signals end of results.
	ParseSearchResults(markup []byte) ([]domain.ListingPreview, error)

	// ParseListingDetail parses a detail page into a normalized listing.
	// A nil listing with nil error means the page held no usable listing.
	ParseListingDetail(markup []byte) (*domain.NormalizedListing, error)
}
