package contracts

import (
	"testing"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
)

func validListing() domain.NormalizedListing {
	return domain.NormalizedListing{
		SourceSite:    "pararius",
		SourceID:      "apt-123",
		SourceURL:     "https://www.pararius.com/apartment-for-rent/amsterdam/apt-123",
		Title:         "Two-room apartment",
		PriceEURCents: 150000,
		PriceType:     "per_month",
		City:          "amsterdam",
		CountryCode:   "NL",
		ScrapedAt:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestValidateListingAcceptsWellFormed(t *testing.T) {
	if err := ValidateListing(validListing()); err != nil {
		t.Fatalf("well-formed listing rejected: %v", err)
	}
}

func TestValidateListingRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.NormalizedListing)
	}{
		{"empty source id", func(l *domain.NormalizedListing) { l.SourceID = "" }},
		{"empty title", func(l *domain.NormalizedListing) { l.Title = "" }},
		{"empty city", func(l *domain.NormalizedListing) { l.City = "" }},
		{"negative price", func(l *domain.NormalizedListing) { l.PriceEURCents = -1 }},
		{"lowercase country code", func(l *domain.NormalizedListing) { l.CountryCode = "nl" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validListing()
			tt.mutate(&l)
			if err := ValidateListing(l); err == nil {
				t.Fatal("expected validation to fail")
			}
		})
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	if err := Validate("MysteryPayload", "9.9.9", []byte(`{}`)); err == nil {
		t.Fatal("unknown schema must be an error")
	}
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	if err := Validate("NormalizedListing", "1.0.0", []byte(`{not json`)); err == nil {
		t.Fatal("malformed JSON must be an error")
	}
}
