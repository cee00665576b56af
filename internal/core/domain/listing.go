package domain

import (
	"time"

	"github.com/google/uuid"
)

// ListingPreview is one card from a search results page. It only carries
// what the results markup exposes; the detail page fills in the rest.
type ListingPreview struct {
	SourceSite    string
	SourceID      string
	SourceURL     string
	Title         string
	PriceEURCents *int64
	City          string
}

// NormalizedListing is a fully parsed candidate listing, not yet stored.
type NormalizedListing struct {
	SourceSite    string                 `json:"source_site"`
	SourceID      string                 `json:"source_id"`
	SourceURL     string                 `json:"source_url"`
	Title         string                 `json:"title"`
	Description   *string                `json:"description,omitempty"`
	PriceEURCents int64                  `json:"price_eur_cents"`
	PriceType     string                 `json:"price_type"`
	Rooms         *float64               `json:"rooms,omitempty"`
	Bedrooms      *int                   `json:"bedrooms,omitempty"`
	Bathrooms     *int                   `json:"bathrooms,omitempty"`
	SizeSqm       *int                   `json:"size_sqm,omitempty"`
	City          string                 `json:"city"`
	Neighborhood  *string                `json:"neighborhood,omitempty"`
	PostalCode    *string                `json:"postal_code,omitempty"`
	CountryCode   string                 `json:"country_code"`
	Address       *string                `json:"address,omitempty"`
	Latitude      *float64               `json:"latitude,omitempty"`
	Longitude     *float64               `json:"longitude,omitempty"`
	Geohash       *string                `json:"geohash,omitempty"`
	PetFriendly   *bool                  `json:"pet_friendly,omitempty"`
	Furnished     *bool                  `json:"furnished,omitempty"`
	EnergyLabel   *string                `json:"energy_label,omitempty"`
	AvailableFrom *time.Time             `json:"available_from,omitempty"`
	RentalAgent   *string                `json:"rental_agent,omitempty"`
	ImageURLs     []string               `json:"image_urls,omitempty"`
	RawData       map[string]interface{} `json:"raw_data,omitempty"`
	ScrapedAt     time.Time              `json:"scraped_at"`
}

// CanonicalListing is the stored, deduplicated representation of a rental
// unit. Identity is (SourceSite, SourceID), unique.
type CanonicalListing struct {
	ID uuid.UUID

	NormalizedListing

	FirstSeenAt time.Time
	LastSeenAt  time.Time
	DelistedAt  *time.Time
	CreatedAt   time.Time
}

// UpsertResult reports what the upsert did with an incoming listing.
type UpsertResult struct {
	IsNew      bool
	WasUpdated bool
	Listing    CanonicalListing
}
