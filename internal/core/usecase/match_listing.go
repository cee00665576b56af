package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// MatchListingUseCase scores one stored listing against the active
// preferences of its city and records matches above the threshold.
// The event queue is optional; publish failures are logged, never
// propagated, because the match row is already committed.
type MatchListingUseCase struct {
	preferences port.PreferenceStoragePort
	matches     port.MatchStoragePort
	queue       port.MatchQueuePort
	now         func() time.Time
}

func NewMatchListingUseCase(
	preferences port.PreferenceStoragePort,
	matches port.MatchStoragePort,
	queue port.MatchQueuePort,
) *MatchListingUseCase {
	return &MatchListingUseCase{
		preferences: preferences,
		matches:     matches,
		queue:       queue,
		now:         time.Now,
	}
}

// Execute returns how many new matches were recorded for the listing.
func (uc *MatchListingUseCase) Execute(ctx context.Context, listing domain.CanonicalListing) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "MatchListing",
		"listing_id": listing.ID.String(),
		"city":       listing.City,
	})

	prefs, err := uc.preferences.ActiveByCity(ctx, listing.City)
	if err != nil {
		logger.Error("Failed to load preferences", err, nil)
		return 0, err
	}
	if len(prefs) == 0 {
		return 0, nil
	}

	created := 0
	for _, pref := range prefs {
		score := ScoreListing(listing, pref)
		if score < MatchThreshold {
			continue
		}

		match := domain.Match{
			ID:                  uuid.New(),
			UserID:              pref.UserID,
			ListingID:           listing.ID,
			PreferenceID:        pref.ID,
			Score:               score,
			NotificationChannel: domain.NotificationChannelNone,
			CreatedAt:           uc.now().UTC(),
		}

		inserted, err := uc.matches.Insert(ctx, match)
		if err != nil {
			logger.Error("Failed to store match", err, port.Fields{"user_id": pref.UserID.String()})
			return created, err
		}
		if !inserted {
			continue
		}
		created++

		if uc.queue != nil {
			if err := uc.queue.PublishMatchCreated(ctx, match.ID, match.UserID, match.Score); err != nil {
				logger.Warn("Match stored but event publish failed", port.Fields{
					"match_id": match.ID.String(), "error": err.Error(),
				})
			}
		}
	}

	if created > 0 {
		logger.Info("Recorded matches for listing", port.Fields{"matches": created})
	}
	return created, nil
}
