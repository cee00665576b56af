package usecase

import (
	"context"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// SweepDelistedUseCase marks listings no longer present on a site as
// delisted instead of deleting them, so match history stays intact.
type SweepDelistedUseCase struct {
	storage   port.ListingStoragePort
	threshold time.Duration
}

func NewSweepDelistedUseCase(storage port.ListingStoragePort, threshold time.Duration) *SweepDelistedUseCase {
	return &SweepDelistedUseCase{storage: storage, threshold: threshold}
}

// Execute sweeps one site using the source IDs observed in the current
// run. Listings seen during the run are never delisted, no matter how
// stale their stored timestamp was.
func (uc *SweepDelistedUseCase) Execute(ctx context.Context, site string, activeIDs map[string]struct{}) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "SweepDelisted",
		"site":     site,
	})

	marked, err := uc.storage.SweepDelisted(ctx, site, activeIDs, uc.threshold)
	if err != nil {
		logger.Error("Delisting sweep failed", err, nil)
		return 0, err
	}
	return marked, nil
}
