package usecase

import (
	"context"
	"strings"

	"github.com/mmcloughlin/geohash"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/contracts"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// IngestStats summarizes what one ingest batch did.
type IngestStats struct {
	New      int
	Updated  int
	Rejected int
}

// IngestListingsUseCase validates, enriches and stores a batch of
// scraped listings. Listings that fail contract validation are counted
// and dropped; one bad listing never fails the batch.
type IngestListingsUseCase struct {
	storage port.ListingStoragePort
}

func NewIngestListingsUseCase(storage port.ListingStoragePort) *IngestListingsUseCase {
	return &IngestListingsUseCase{storage: storage}
}

func (uc *IngestListingsUseCase) Execute(ctx context.Context, listings []domain.NormalizedListing) ([]domain.UpsertResult, IngestStats, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "IngestListings",
	})

	var stats IngestStats
	results := make([]domain.UpsertResult, 0, len(listings))

	for _, listing := range listings {
		enriched := enrichListing(listing)

		if err := contracts.ValidateListing(enriched); err != nil {
			stats.Rejected++
			logger.Warn("Listing failed contract validation, dropping", port.Fields{
				"source_site": listing.SourceSite,
				"source_id":   listing.SourceID,
				"error":       err.Error(),
			})
			continue
		}

		result, err := uc.storage.Upsert(ctx, enriched)
		if err != nil {
			logger.Error("Upsert failed, aborting batch", err, port.Fields{
				"source_site": listing.SourceSite,
				"source_id":   listing.SourceID,
			})
			return results, stats, err
		}

		if result.IsNew {
			stats.New++
		} else {
			stats.Updated++
		}
		results = append(results, result)
	}

	logger.Info("Ingest batch complete", port.Fields{
		"new": stats.New, "updated": stats.Updated, "rejected": stats.Rejected,
	})
	return results, stats, nil
}

// enrichListing normalizes the city the Dutch way and derives a geohash
// when coordinates are present but the hash is not. The Caser is built
// per call: it carries transform state and batches run concurrently.
func enrichListing(listing domain.NormalizedListing) domain.NormalizedListing {
	listing.City = cases.Lower(language.Dutch).String(strings.TrimSpace(listing.City))

	if listing.Geohash == nil && listing.Latitude != nil && listing.Longitude != nil {
		gh := geohash.Encode(*listing.Latitude, *listing.Longitude)
		listing.Geohash = &gh
	}

	if listing.CountryCode == "" {
		listing.CountryCode = "NL"
	}
	if listing.PriceType == "" {
		listing.PriceType = "per_month"
	}

	return listing
}
