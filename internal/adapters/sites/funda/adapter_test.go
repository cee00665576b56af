package funda

import (
	"testing"

	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

const searchResultsHTML = `
<html><body>
<div data-test-id="search-result-item">
  <a href="/huur/amsterdam/appartement-43210987-herengracht-12/">
    <h2>Herengracht 12</h2>
  </a>
  <span class="search-result-price">&euro; 2.100 /maand</span>
</div>
<div data-test-id="search-result-item">
  <a href="/over-funda/">About us</a>
</div>
</body></html>`

func TestBuildSearchURL(t *testing.T) {
	a := New()

	got := a.BuildSearchURL("Amsterdam", 1, port.SearchFilters{})
	if got != "https://www.funda.nl/huur/amsterdam/beschikbaar/" {
		t.Errorf("BuildSearchURL page 1 = %q", got)
	}
	got = a.BuildSearchURL("'s-Hertogenbosch", 2, port.SearchFilters{})
	if got != "https://www.funda.nl/huur/s-hertogenbosch/beschikbaar/p2/" {
		t.Errorf("BuildSearchURL page 2 = %q", got)
	}
}

func TestParseSearchResultsSkipsNonListingLinks(t *testing.T) {
	a := New()

	previews, err := a.ParseSearchResults([]byte(searchResultsHTML))
	if err != nil {
		t.Fatal(err)
	}
	if len(previews) != 1 {
		t.Fatalf("expected 1 preview, got %d", len(previews))
	}

	p := previews[0]
	if p.SourceID != "appartement-43210987-herengracht-12" {
		t.Errorf("SourceID = %q", p.SourceID)
	}
	if p.Title != "Herengracht 12" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.PriceEURCents == nil || *p.PriceEURCents != 210000 {
		t.Errorf("PriceEURCents = %v, want 210000", p.PriceEURCents)
	}
}

func TestParseListingDetailWithoutTitle(t *testing.T) {
	a := New()

	listing, err := a.ParseListingDetail([]byte("<html><body><p>gone</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if listing != nil {
		t.Fatal("expected nil listing for a page without a title")
	}
}
