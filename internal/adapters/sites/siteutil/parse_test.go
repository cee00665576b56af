package siteutil

import "testing"

func TestParsePriceCents(t *testing.T) {
	cents := func(v int64) *int64 { return &v }

	tests := []struct {
		name string
		raw  string
		want *int64
	}{
		{"funda style", "€ 1.500 /maand", cents(150000)},
		{"pararius style", "€1,250 per month", cents(125000)},
		{"bare amount", "950", cents(95000)},
		{"kamernet style", "€ 750 p/m", cents(75000)},
		{"price on request", "Prijs op aanvraag", nil},
		{"empty", "", nil},
		{"garbage", "€ -", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePriceCents(tt.raw)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Fatalf("ParsePriceCents(%q) = %v, want %v", tt.raw, got, tt.want)
			case *got != *tt.want:
				t.Fatalf("ParsePriceCents(%q) = %d, want %d", tt.raw, *got, *tt.want)
			}
		})
	}
}

func TestParseSizeAndRooms(t *testing.T) {
	text := "Mooie woning, 3 kamers, 60 m² in het centrum"

	if got := ParseSizeSqm(text); got == nil || *got != 60 {
		t.Fatalf("ParseSizeSqm = %v, want 60", got)
	}
	if got := ParseRooms(text); got == nil || *got != 3 {
		t.Fatalf("ParseRooms = %v, want 3", got)
	}
	if got := ParseRooms("no numbers here"); got != nil {
		t.Fatalf("ParseRooms on plain text = %v, want nil", got)
	}
}

func TestCityNormalization(t *testing.T) {
	if got := NormalizeCity("  Amsterdam "); got != "amsterdam" {
		t.Fatalf("NormalizeCity = %q", got)
	}
	if got := CitySlug("Den Haag"); got != "den-haag" {
		t.Fatalf("CitySlug = %q", got)
	}
	if got := CitySlug("'s-Hertogenbosch"); got != "s-hertogenbosch" {
		t.Fatalf("CitySlug = %q", got)
	}
}
