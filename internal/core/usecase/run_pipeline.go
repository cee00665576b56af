package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// RunSummary aggregates what one pipeline run accomplished.
type RunSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	PairsTotal  int `json:"pairs_total"`
	PairsFailed int `json:"pairs_failed"`

	ListingsScraped  int `json:"listings_scraped"`
	ListingsNew      int `json:"listings_new"`
	ListingsUpdated  int `json:"listings_updated"`
	ListingsRejected int `json:"listings_rejected"`
	MatchesCreated   int `json:"matches_created"`
	Delisted         int `json:"delisted"`

	ReportPath string `json:"report_path,omitempty"`
}

// RunPipelineUseCase drives one full scrape-ingest-match-sweep cycle
// over every configured (source, city) pair. Sources run concurrently;
// cities within a source run in order so per-site politeness holds.
// A failing pair is isolated: its partial results are still ingested
// and the rest of the run proceeds.
type RunPipelineUseCase struct {
	sources  []port.ListingSourcePort
	cities   []string
	maxPages int

	ingest *IngestListingsUseCase
	match  *MatchListingUseCase
	sweep  *SweepDelistedUseCase
	report port.BatchReportPort
}

func NewRunPipelineUseCase(
	sources []port.ListingSourcePort,
	cities []string,
	maxPages int,
	ingest *IngestListingsUseCase,
	match *MatchListingUseCase,
	sweep *SweepDelistedUseCase,
	report port.BatchReportPort,
) *RunPipelineUseCase {
	return &RunPipelineUseCase{
		sources:  sources,
		cities:   cities,
		maxPages: maxPages,
		ingest:   ingest,
		match:    match,
		sweep:    sweep,
		report:   report,
	}
}

type pairResult struct {
	site     string
	city     string
	listings []domain.NormalizedListing
	upserts  []domain.UpsertResult
	stats    IngestStats
	matches  int
	failed   bool
}

func (uc *RunPipelineUseCase) Execute(ctx context.Context) (RunSummary, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "RunPipeline",
	})

	summary := RunSummary{StartedAt: time.Now().UTC()}
	ucLogger.Info("Starting pipeline run", port.Fields{
		"sources": len(uc.sources), "cities": len(uc.cities),
	})

	var wg sync.WaitGroup
	resultsChan := make(chan pairResult, len(uc.sources)*len(uc.cities))

	for _, source := range uc.sources {
		wg.Add(1)
		go func(src port.ListingSourcePort) {
			defer wg.Done()
			for _, city := range uc.cities {
				resultsChan <- uc.runPair(ctx, src, city)
			}
		}(source)
	}
	wg.Wait()
	close(resultsChan)

	activeBySite := make(map[string]map[string]struct{})
	batch := make(port.BatchReport)

	for result := range resultsChan {
		summary.PairsTotal++
		if result.failed {
			summary.PairsFailed++
		}
		summary.ListingsScraped += len(result.listings)
		summary.ListingsNew += result.stats.New
		summary.ListingsUpdated += result.stats.Updated
		summary.ListingsRejected += result.stats.Rejected
		summary.MatchesCreated += result.matches

		batch[fmt.Sprintf("%s:%s", result.site, result.city)] = result.listings

		active, ok := activeBySite[result.site]
		if !ok {
			active = make(map[string]struct{})
			activeBySite[result.site] = active
		}
		for _, upsert := range result.upserts {
			active[upsert.Listing.SourceID] = struct{}{}
		}
	}

	for site, active := range activeBySite {
		marked, err := uc.sweep.Execute(ctx, site, active)
		if err != nil {
			ucLogger.Error("Sweep failed for site, continuing", err, port.Fields{"site": site})
			continue
		}
		summary.Delisted += marked
	}

	if uc.report != nil {
		path, err := uc.report.Write(ctx, batch)
		if err != nil {
			ucLogger.Error("Failed to write batch report, continuing", err, nil)
		} else {
			summary.ReportPath = path
		}
	}

	summary.FinishedAt = time.Now().UTC()
	ucLogger.Info("Pipeline run complete", port.Fields{
		"pairs":    summary.PairsTotal,
		"failed":   summary.PairsFailed,
		"scraped":  summary.ListingsScraped,
		"new":      summary.ListingsNew,
		"updated":  summary.ListingsUpdated,
		"rejected": summary.ListingsRejected,
		"matches":  summary.MatchesCreated,
		"delisted": summary.Delisted,
	})
	return summary, nil
}

// runPair scrapes, ingests and matches one (source, city) pair. Errors
// mark the pair failed but whatever was collected is still processed.
func (uc *RunPipelineUseCase) runPair(ctx context.Context, source port.ListingSourcePort, city string) pairResult {
	pairLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"site": source.SiteName(),
		"city": city,
	})
	pairCtx := contextkeys.ContextWithLogger(ctx, pairLogger)

	result := pairResult{site: source.SiteName(), city: city}

	listings, err := source.ScrapeCity(pairCtx, city, uc.maxPages)
	if err != nil {
		result.failed = true
		pairLogger.Error("Scrape failed, processing partial results", err, port.Fields{
			"collected": len(listings),
		})
	}
	result.listings = listings
	if len(listings) == 0 {
		return result
	}

	upserts, stats, err := uc.ingest.Execute(pairCtx, listings)
	if err != nil {
		result.failed = true
	}
	result.upserts = upserts
	result.stats = stats

	for _, upsert := range upserts {
		created, err := uc.match.Execute(pairCtx, upsert.Listing)
		if err != nil {
			result.failed = true
			pairLogger.Error("Matching failed for listing, continuing pair", err, port.Fields{
				"listing_id": upsert.Listing.ID.String(),
			})
			continue
		}
		result.matches += created
	}

	return result
}
