package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// fakeListingStorage keeps canonical listings in memory with the same
// merge semantics contract as the real adapter.
type fakeListingStorage struct {
	mu        sync.Mutex
	byKey     map[string]domain.CanonicalListing
	swept     map[string]int
	upsertErr error
}

func newFakeListingStorage() *fakeListingStorage {
	return &fakeListingStorage{
		byKey: make(map[string]domain.CanonicalListing),
		swept: make(map[string]int),
	}
}

func (f *fakeListingStorage) Upsert(_ context.Context, listing domain.NormalizedListing) (domain.UpsertResult, error) {
	if f.upsertErr != nil {
		return domain.UpsertResult{}, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := listing.SourceSite + "/" + listing.SourceID
	now := time.Now().UTC()

	existing, ok := f.byKey[key]
	if !ok {
		created := domain.CanonicalListing{
			ID:                uuid.New(),
			NormalizedListing: listing,
			FirstSeenAt:       now,
			LastSeenAt:        now,
			CreatedAt:         now,
		}
		f.byKey[key] = created
		return domain.UpsertResult{IsNew: true, Listing: created}, nil
	}

	if listing.Title != "" {
		existing.Title = listing.Title
	}
	if listing.PriceEURCents > 0 {
		existing.PriceEURCents = listing.PriceEURCents
	}
	existing.LastSeenAt = now
	existing.DelistedAt = nil
	f.byKey[key] = existing
	return domain.UpsertResult{WasUpdated: true, Listing: existing}, nil
}

func (f *fakeListingStorage) SweepDelisted(_ context.Context, site string, activeIDs map[string]struct{}, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swept[site] = len(activeIDs)
	return 0, nil
}

type fakeSource struct {
	name    string
	byCity  map[string][]domain.NormalizedListing
	cityErr map[string]error
}

func (f *fakeSource) SiteName() string { return f.name }

func (f *fakeSource) ScrapeCity(_ context.Context, city string, _ int) ([]domain.NormalizedListing, error) {
	return f.byCity[city], f.cityErr[city]
}

type fakeBatchReport struct {
	mu     sync.Mutex
	report port.BatchReport
}

func (f *fakeBatchReport) Write(_ context.Context, report port.BatchReport) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = report
	return "/tmp/scrape_test.json", nil
}

func normalized(site, id, city string) domain.NormalizedListing {
	return domain.NormalizedListing{
		SourceSite:    site,
		SourceID:      id,
		SourceURL:     "https://example.com/" + site + "/" + id,
		Title:         "Listing " + id,
		PriceEURCents: 140000,
		City:          city,
		ScrapedAt:     time.Now().UTC(),
	}
}

func newPipeline(sources []port.ListingSourcePort, cities []string, storage *fakeListingStorage, report port.BatchReportPort) *RunPipelineUseCase {
	return NewRunPipelineUseCase(
		sources,
		cities,
		3,
		NewIngestListingsUseCase(storage),
		NewMatchListingUseCase(&fakePreferenceStorage{}, &fakeMatchStorage{}, nil),
		NewSweepDelistedUseCase(storage, 48*time.Hour),
		report,
	)
}

func TestRunPipelineProcessesAllPairs(t *testing.T) {
	storage := newFakeListingStorage()
	report := &fakeBatchReport{}

	sources := []port.ListingSourcePort{
		&fakeSource{name: "pararius", byCity: map[string][]domain.NormalizedListing{
			"amsterdam": {normalized("pararius", "a1", "amsterdam"), normalized("pararius", "a2", "amsterdam")},
			"utrecht":   {normalized("pararius", "u1", "utrecht")},
		}},
		&fakeSource{name: "funda", byCity: map[string][]domain.NormalizedListing{
			"amsterdam": {normalized("funda", "f1", "amsterdam")},
		}},
	}

	uc := newPipeline(sources, []string{"amsterdam", "utrecht"}, storage, report)
	summary, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if summary.PairsTotal != 4 {
		t.Errorf("PairsTotal = %d, want 4", summary.PairsTotal)
	}
	if summary.PairsFailed != 0 {
		t.Errorf("PairsFailed = %d, want 0", summary.PairsFailed)
	}
	if summary.ListingsScraped != 4 || summary.ListingsNew != 4 {
		t.Errorf("scraped %d / new %d, want 4 / 4", summary.ListingsScraped, summary.ListingsNew)
	}
	if summary.ReportPath == "" {
		t.Error("run must produce a batch report")
	}
	if len(report.report["pararius:amsterdam"]) != 2 {
		t.Errorf("batch report lost listings: %+v", report.report)
	}

	// Each site swept with exactly the IDs seen this run.
	if storage.swept["pararius"] != 3 {
		t.Errorf("pararius swept with %d active ids, want 3", storage.swept["pararius"])
	}
	if storage.swept["funda"] != 1 {
		t.Errorf("funda swept with %d active ids, want 1", storage.swept["funda"])
	}
}

func TestRunPipelineIsolatesFailingPair(t *testing.T) {
	storage := newFakeListingStorage()

	sources := []port.ListingSourcePort{
		&fakeSource{
			name: "pararius",
			byCity: map[string][]domain.NormalizedListing{
				"amsterdam": {normalized("pararius", "a1", "amsterdam")},
				// utrecht fails mid-scrape but still returns one partial result
				"utrecht": {normalized("pararius", "u1", "utrecht")},
			},
			cityErr: map[string]error{"utrecht": errors.New("circuit open")},
		},
		&fakeSource{name: "kamernet", byCity: map[string][]domain.NormalizedListing{
			"amsterdam": {normalized("kamernet", "k1", "amsterdam")},
		}},
	}

	uc := newPipeline(sources, []string{"amsterdam", "utrecht"}, storage, nil)
	summary, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("a failing pair must not fail the run: %v", err)
	}

	if summary.PairsFailed != 1 {
		t.Errorf("PairsFailed = %d, want 1", summary.PairsFailed)
	}
	// Partial results of the failed pair are still ingested.
	if summary.ListingsNew != 3 {
		t.Errorf("ListingsNew = %d, want 3 including the partial pair", summary.ListingsNew)
	}
}

func TestRunPipelineSkipsIngestForEmptyPair(t *testing.T) {
	storage := newFakeListingStorage()

	sources := []port.ListingSourcePort{
		&fakeSource{name: "pararius", byCity: map[string][]domain.NormalizedListing{}},
	}

	uc := newPipeline(sources, []string{"amsterdam"}, storage, nil)
	summary, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.ListingsScraped != 0 || summary.PairsFailed != 0 {
		t.Fatalf("empty pair mishandled: %+v", summary)
	}
}

func TestIngestListingsCountsAndRejects(t *testing.T) {
	storage := newFakeListingStorage()
	uc := NewIngestListingsUseCase(storage)

	valid := normalized("pararius", "a1", "Amsterdam")
	invalid := normalized("pararius", "a2", "amsterdam")
	invalid.Title = "" // fails contract validation

	results, stats, err := uc.Execute(context.Background(), []domain.NormalizedListing{valid, invalid, valid})
	if err != nil {
		t.Fatal(err)
	}
	if stats.New != 1 || stats.Rejected != 1 || stats.Updated != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if got := results[0].Listing.City; got != "amsterdam" {
		t.Errorf("city not normalized: %q", got)
	}
}

func TestIngestListingsDerivesGeohash(t *testing.T) {
	storage := newFakeListingStorage()
	uc := NewIngestListingsUseCase(storage)

	listing := normalized("funda", "f1", "amsterdam")
	listing.Latitude = ptr(52.3702)
	listing.Longitude = ptr(4.8952)

	results, _, err := uc.Execute(context.Background(), []domain.NormalizedListing{listing})
	if err != nil {
		t.Fatal(err)
	}
	gh := results[0].Listing.Geohash
	if gh == nil || *gh == "" {
		t.Fatal("geohash not derived from coordinates")
	}
}
