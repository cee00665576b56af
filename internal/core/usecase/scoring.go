package usecase

import (
	"math"
	"strings"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
)

// Scoring weights. City and price dominate; rooms and size refine; the
// extras bucket splits its weight across the criteria both sides state.
const (
	weightCity   = 0.30
	weightPrice  = 0.30
	weightRooms  = 0.15
	weightSize   = 0.15
	weightExtras = 0.10

	// MatchThreshold is the minimum score at which a match is recorded.
	MatchThreshold = 0.5
)

// ScoreListing rates how well a listing satisfies a preference, in
// [0, 1] rounded to three decimals. Criteria the listing cannot answer
// (missing rooms or size against a bounded preference) earn nothing
// rather than being guessed at.
func ScoreListing(listing domain.CanonicalListing, pref domain.Preference) float64 {
	score := 0.0

	if strings.EqualFold(listing.City, pref.City) {
		score += weightCity
	}

	if pref.MinPrice == nil || listing.PriceEURCents >= *pref.MinPrice {
		if listing.PriceEURCents <= pref.MaxPrice {
			score += weightPrice
		}
	}

	if pref.MinRooms != nil && pref.MaxRooms != nil {
		if listing.Rooms != nil && *pref.MinRooms <= *listing.Rooms && *listing.Rooms <= *pref.MaxRooms {
			score += weightRooms
		}
	} else if listing.Rooms != nil {
		score += weightRooms
	}

	if pref.MinSizeSqm != nil && pref.MaxSizeSqm != nil {
		if listing.SizeSqm != nil && *pref.MinSizeSqm <= *listing.SizeSqm && *listing.SizeSqm <= *pref.MaxSizeSqm {
			score += weightSize
		}
	} else if listing.SizeSqm != nil {
		score += weightSize
	}

	extrasScore := 0.0
	extrasCount := 0
	if pref.PetFriendly && listing.PetFriendly != nil {
		extrasCount++
		if *listing.PetFriendly {
			extrasScore++
		}
	}
	if pref.Furnished != nil && listing.Furnished != nil {
		extrasCount++
		if *listing.Furnished == *pref.Furnished {
			extrasScore++
		}
	}
	if extrasCount > 0 {
		score += weightExtras * (extrasScore / float64(extrasCount))
	}

	return math.Round(score*1000) / 1000
}
