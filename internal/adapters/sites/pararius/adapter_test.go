package pararius

import (
	"strings"
	"testing"

	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

const searchResultsHTML = `
<html><body>
<ul class="search-list">
  <li class="search-list__item">
    <section class="listing-search-item">
      <h2 class="listing-search-item__title">
        <a class="listing-search-item__link--title" href="/apartment-for-rent/amsterdam/ab12cd34/prinsengracht">Apartment Prinsengracht</a>
      </h2>
      <div class="listing-search-item__price">&euro;1,750 per month</div>
    </section>
  </li>
  <li class="search-list__item">
    <section class="listing-search-item">
      <h2 class="listing-search-item__title">
        <a class="listing-search-item__link--title" href="https://www.pararius.com/apartment-for-rent/amsterdam/ef56gh78/keizersgracht">Apartment Keizersgracht</a>
      </h2>
      <div class="listing-search-item__price">Price on request</div>
    </section>
  </li>
</ul>
</body></html>`

const detailHTML = `
<html><body>
<h1>Apartment Prinsengracht 100</h1>
<div class="listing-detail-summary__price">&euro;1,750 per month</div>
<dl>
  <dt>Surface</dt><dd>60 m&#178;</dd>
  <dt>Layout</dt><dd>2 rooms</dd>
</dl>
</body></html>`

func TestBuildSearchURL(t *testing.T) {
	a := New()

	tests := []struct {
		city    string
		page    int
		filters port.SearchFilters
		want    string
	}{
		{"Amsterdam", 1, port.SearchFilters{}, "https://www.pararius.com/apartments/amsterdam"},
		{"Den Haag", 3, port.SearchFilters{}, "https://www.pararius.com/apartments/den-haag/page-3"},
		{"amsterdam", 1, port.SearchFilters{MinPriceEUR: 1000, MaxPriceEUR: 2000}, "https://www.pararius.com/apartments/amsterdam/1000-2000"},
	}
	for _, tt := range tests {
		if got := a.BuildSearchURL(tt.city, tt.page, tt.filters); got != tt.want {
			t.Errorf("BuildSearchURL(%q, %d) = %q, want %q", tt.city, tt.page, got, tt.want)
		}
	}
}

func TestParseSearchResults(t *testing.T) {
	a := New()

	previews, err := a.ParseSearchResults([]byte(searchResultsHTML))
	if err != nil {
		t.Fatal(err)
	}
	if len(previews) != 2 {
		t.Fatalf("expected 2 previews, got %d", len(previews))
	}

	first := previews[0]
	if first.SourceID != "prinsengracht" {
		t.Errorf("SourceID = %q", first.SourceID)
	}
	if !strings.HasPrefix(first.SourceURL, "https://www.pararius.com/") {
		t.Errorf("relative href not resolved: %q", first.SourceURL)
	}
	if first.PriceEURCents == nil || *first.PriceEURCents != 175000 {
		t.Errorf("PriceEURCents = %v, want 175000", first.PriceEURCents)
	}

	// Unparseable price stays unknown rather than becoming zero.
	if previews[1].PriceEURCents != nil {
		t.Errorf("expected unknown price, got %d", *previews[1].PriceEURCents)
	}
}

func TestParseSearchResultsEmptyPage(t *testing.T) {
	a := New()

	previews, err := a.ParseSearchResults([]byte("<html><body><p>No results</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if len(previews) != 0 {
		t.Fatalf("expected no previews, got %d", len(previews))
	}
}

func TestParseListingDetail(t *testing.T) {
	a := New()

	listing, err := a.ParseListingDetail([]byte(detailHTML))
	if err != nil {
		t.Fatal(err)
	}
	if listing == nil {
		t.Fatal("expected a listing")
	}
	if listing.Title != "Apartment Prinsengracht 100" {
		t.Errorf("Title = %q", listing.Title)
	}
	if listing.PriceEURCents != 175000 {
		t.Errorf("PriceEURCents = %d", listing.PriceEURCents)
	}
	if listing.SizeSqm == nil || *listing.SizeSqm != 60 {
		t.Errorf("SizeSqm = %v, want 60", listing.SizeSqm)
	}
	if listing.Rooms == nil || *listing.Rooms != 2 {
		t.Errorf("Rooms = %v, want 2", listing.Rooms)
	}
}
