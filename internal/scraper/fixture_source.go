package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// FixtureSource replays a recorded search results page through a site
// adapter instead of touching the network. Used for offline runs and
// for exercising the pipeline end to end in development.
type FixtureSource struct {
	adapter     port.SiteAdapterPort
	fixturesDir string
}

func NewFixtureSource(adapter port.SiteAdapterPort, fixturesDir string) *FixtureSource {
	return &FixtureSource{adapter: adapter, fixturesDir: fixturesDir}
}

func (f *FixtureSource) SiteName() string { return f.adapter.SiteName() }

func (f *FixtureSource) ScrapeCity(ctx context.Context, city string, _ int) ([]domain.NormalizedListing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "FixtureSource",
		"site":      f.adapter.SiteName(),
		"city":      city,
	})

	path := filepath.Join(f.fixturesDir, fmt.Sprintf("%s_search_results.html", f.adapter.SiteName()))
	markup, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("No fixture found for site, skipping", port.Fields{"path": path})
		return nil, nil
	}

	previews, err := f.adapter.ParseSearchResults(markup)
	if err != nil {
		return nil, fmt.Errorf("fixture parse failed for %s: %w", f.adapter.SiteName(), err)
	}
	logger.Info("Parsed previews from fixture", port.Fields{"previews": len(previews)})

	var results []domain.NormalizedListing
	for _, preview := range previews {
		// The same fixture stands in for every detail page.
		listing, err := f.adapter.ParseListingDetail(markup)
		if err != nil {
			logger.Warn("Fixture detail parse failed, skipping listing", port.Fields{
				"source_id": preview.SourceID, "error": err.Error(),
			})
			continue
		}
		if listing == nil {
			continue
		}
		results = append(results, mergePreview(*listing, preview, city))
	}

	return results, nil
}
