package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFixtureSourceReplaysSavedMarkup(t *testing.T) {
	dir := t.TempDir()
	markup := "https://stub.example/detail/1 https://stub.example/detail/2"
	if err := os.WriteFile(filepath.Join(dir, "stubsite_search_results.html"), []byte(markup), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFixtureSource(&stubAdapter{baseURL: "https://stub.example"}, dir)
	listings, err := src.ScrapeCity(context.Background(), "amsterdam", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	if listings[0].SourceID != "item-0" || listings[0].City != "amsterdam" {
		t.Fatalf("preview identity not applied: %+v", listings[0])
	}
}

func TestFixtureSourceMissingFileYieldsNothing(t *testing.T) {
	src := NewFixtureSource(&stubAdapter{baseURL: "https://stub.example"}, t.TempDir())
	listings, err := src.ScrapeCity(context.Background(), "amsterdam", 1)
	if err != nil {
		t.Fatalf("missing fixture must not be an error: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("got %d listings from a missing fixture", len(listings))
	}
}
