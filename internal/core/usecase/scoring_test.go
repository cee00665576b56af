package usecase

import (
	"testing"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

func amsterdamListing() domain.CanonicalListing {
	return domain.CanonicalListing{
		NormalizedListing: domain.NormalizedListing{
			SourceSite:    "pararius",
			SourceID:      "apt-1",
			Title:         "Two-room apartment",
			PriceEURCents: 150000,
			Rooms:         ptr(2.0),
			SizeSqm:       ptr(55),
			City:          "Amsterdam",
			CountryCode:   "NL",
			PetFriendly:   ptr(true),
			Furnished:     ptr(true),
		},
	}
}

func amsterdamPreference() domain.Preference {
	return domain.Preference{
		City:        "amsterdam",
		CountryCode: "NL",
		MaxPrice:    180000,
		MinRooms:    ptr(1.0),
		MaxRooms:    ptr(3.0),
		MinSizeSqm:  ptr(40),
		MaxSizeSqm:  ptr(80),
		PetFriendly: true,
		Furnished:   ptr(true),
		IsActive:    true,
	}
}

func TestScoreListingFullMatch(t *testing.T) {
	got := ScoreListing(amsterdamListing(), amsterdamPreference())
	if got != 1.0 {
		t.Fatalf("score = %v, want 1.0", got)
	}
}

func TestScoreListingCityMismatchStaysBelowThreshold(t *testing.T) {
	listing := amsterdamListing()
	listing.City = "Rotterdam"
	listing.PriceEURCents = 250000

	got := ScoreListing(listing, amsterdamPreference())
	if got >= MatchThreshold {
		t.Fatalf("score = %v, must stay below %v for wrong city and price", got, MatchThreshold)
	}
}

func TestScoreListingBounds(t *testing.T) {
	tests := []struct {
		name    string
		listing func() domain.CanonicalListing
		pref    func() domain.Preference
		want    float64
	}{
		{
			name:    "price above max loses price weight",
			listing: func() domain.CanonicalListing { l := amsterdamListing(); l.PriceEURCents = 200000; return l },
			pref:    amsterdamPreference,
			want:    0.70,
		},
		{
			name:    "price below set minimum loses price weight",
			listing: func() domain.CanonicalListing { l := amsterdamListing(); l.PriceEURCents = 50000; return l },
			pref: func() domain.Preference {
				p := amsterdamPreference()
				p.MinPrice = ptr(int64(100000))
				return p
			},
			want: 0.70,
		},
		{
			name:    "unknown rooms against bounded preference earns nothing",
			listing: func() domain.CanonicalListing { l := amsterdamListing(); l.Rooms = nil; return l },
			pref:    amsterdamPreference,
			want:    0.85,
		},
		{
			name:    "known rooms with unbounded preference earns the weight",
			listing: amsterdamListing,
			pref: func() domain.Preference {
				p := amsterdamPreference()
				p.MinRooms, p.MaxRooms = nil, nil
				return p
			},
			want: 1.0,
		},
		{
			name:    "rooms outside bounds earns nothing",
			listing: func() domain.CanonicalListing { l := amsterdamListing(); l.Rooms = ptr(5.0); return l },
			pref:    amsterdamPreference,
			want:    0.85,
		},
		{
			name:    "size outside bounds earns nothing",
			listing: func() domain.CanonicalListing { l := amsterdamListing(); l.SizeSqm = ptr(120); return l },
			pref:    amsterdamPreference,
			want:    0.85,
		},
		{
			name:    "one of two extras satisfied splits the extras weight",
			listing: func() domain.CanonicalListing { l := amsterdamListing(); l.Furnished = ptr(false); return l },
			pref:    amsterdamPreference,
			want:    0.95,
		},
		{
			name:    "no stated extras drops the extras weight entirely",
			listing: func() domain.CanonicalListing {
				l := amsterdamListing()
				l.PetFriendly, l.Furnished = nil, nil
				return l
			},
			pref: amsterdamPreference,
			want: 0.90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreListing(tt.listing(), tt.pref())
			if got != tt.want {
				t.Fatalf("score = %v, want %v", got, tt.want)
			}
		})
	}
}
