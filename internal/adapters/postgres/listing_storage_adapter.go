package postgres_adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// PostgresListingStorage implements port.ListingStoragePort on pgx.
// Listing identity is (source_site, source_id), enforced with a unique
// constraint; Upsert serializes concurrent writers on the row lock.
type PostgresListingStorage struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresListingStorage(pool *pgxpool.Pool) (*PostgresListingStorage, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresListingStorage{pool: pool, now: time.Now}, nil
}

const listingColumns = `
	id, source_site, source_id, source_url, title, description,
	price_eur_cents, price_type, rooms, size_sqm, city, postal_code,
	country_code, latitude, longitude, geohash, pet_friendly, furnished,
	available_from, first_seen_at, last_seen_at, delisted_at, created_at
`

// Upsert stores an incoming listing under its (source_site, source_id)
// identity. A fresh identity inserts a new row; a known identity bumps
// last_seen_at, clears delisted_at, and overwrites mutable fields only
// when the incoming values are non-empty, so a sparse re-scrape never
// erases data a richer earlier scrape collected. Any re-sight of a
// known identity reports WasUpdated, identical payload included,
// because last_seen_at moves.
func (s *PostgresListingStorage) Upsert(ctx context.Context, incoming domain.NormalizedListing) (domain.UpsertResult, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PostgresListingStorage",
		"method":      "Upsert",
		"source_site": incoming.SourceSite,
		"source_id":   incoming.SourceID,
	})

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", err, nil)
		return domain.UpsertResult{}, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := s.now().UTC()

	existing, err := findForUpdate(ctx, tx, incoming.SourceSite, incoming.SourceID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error("Failed to load existing listing", err, nil)
		return domain.UpsertResult{}, fmt.Errorf("failed to load existing listing: %w", err)
	}

	result := applyUpsert(existing, incoming, now)

	if result.IsNew {
		if err := insertListing(ctx, tx, result.Listing); err != nil {
			logger.Error("Failed to insert listing", err, nil)
			return domain.UpsertResult{}, fmt.Errorf("failed to insert listing: %w", err)
		}
		logger.Debug("Inserted new listing", port.Fields{"listing_id": result.Listing.ID.String()})
	} else {
		if err := updateListing(ctx, tx, result.Listing); err != nil {
			logger.Error("Failed to update listing", err, nil)
			return domain.UpsertResult{}, fmt.Errorf("failed to update listing: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return result, nil
}

// SweepDelisted marks listings of one site as delisted when they were
// last seen before the threshold and did not appear in the current run.
// Returns how many rows were marked.
func (s *PostgresListingStorage) SweepDelisted(ctx context.Context, site string, activeIDs map[string]struct{}, threshold time.Duration) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresListingStorage",
		"method":    "SweepDelisted",
		"site":      site,
	})

	now := s.now().UTC()
	cutoff := now.Add(-threshold)

	rows, err := s.pool.Query(ctx,
		`SELECT source_id, last_seen_at FROM listings WHERE source_site = $1 AND delisted_at IS NULL`,
		site,
	)
	if err != nil {
		logger.Error("Failed to load sweep candidates", err, nil)
		return 0, fmt.Errorf("failed to load sweep candidates for %s: %w", site, err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var (
			sourceID string
			lastSeen time.Time
		)
		if err := rows.Scan(&sourceID, &lastSeen); err != nil {
			return 0, fmt.Errorf("failed to scan sweep candidate: %w", err)
		}
		if shouldDelist(sourceID, lastSeen, cutoff, activeIDs) {
			stale = append(stale, sourceID)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate sweep candidates for %s: %w", site, err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	cmdTag, err := s.pool.Exec(ctx,
		`UPDATE listings SET delisted_at = $1 WHERE source_site = $2 AND source_id = ANY($3)`,
		now, site, stale,
	)
	if err != nil {
		logger.Error("Failed to sweep delisted listings", err, nil)
		return 0, fmt.Errorf("failed to sweep delisted listings for %s: %w", site, err)
	}

	marked := int(cmdTag.RowsAffected())
	if marked > 0 {
		logger.Info("Marked stale listings as delisted", port.Fields{"count": marked})
	}
	return marked, nil
}

// shouldDelist reports whether a listing has gone stale. A listing seen
// in the current run is never delisted, no matter how old its stored
// last_seen_at is; one absent from the run is delisted once its last
// sighting falls behind the cutoff.
func shouldDelist(sourceID string, lastSeen, cutoff time.Time, activeIDs map[string]struct{}) bool {
	if _, active := activeIDs[sourceID]; active {
		return false
	}
	return lastSeen.Before(cutoff)
}

// ActiveIDs returns the source IDs of all non-delisted listings for a
// site, keyed for set membership checks.
func (s *PostgresListingStorage) ActiveIDs(ctx context.Context, site string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT source_id FROM listings WHERE source_site = $1 AND delisted_at IS NULL`, site)
	if err != nil {
		return nil, fmt.Errorf("failed to query active listing ids for %s: %w", site, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan listing id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// applyUpsert decides what an incoming scrape does to the store: a
// fresh identity becomes a new row, a known identity is merged and
// always reported as updated since last_seen_at moves on every
// re-sight.
func applyUpsert(existing *domain.CanonicalListing, incoming domain.NormalizedListing, now time.Time) domain.UpsertResult {
	if existing == nil {
		return domain.UpsertResult{IsNew: true, Listing: newCanonical(incoming, now)}
	}
	return domain.UpsertResult{WasUpdated: true, Listing: mergeCanonical(*existing, incoming, now)}
}

// newCanonical builds the stored form of a first-seen listing.
func newCanonical(incoming domain.NormalizedListing, now time.Time) domain.CanonicalListing {
	return domain.CanonicalListing{
		ID:                uuid.New(),
		NormalizedListing: incoming,
		FirstSeenAt:       now,
		LastSeenAt:        now,
		CreatedAt:         now,
	}
}

// mergeCanonical folds an incoming scrape into the stored listing.
// Empty incoming title and zero incoming price are treated as "not
// observed" and never overwrite stored values. A reappearing listing
// loses its delisted mark.
func mergeCanonical(existing domain.CanonicalListing, incoming domain.NormalizedListing, now time.Time) domain.CanonicalListing {
	merged := existing

	if incoming.Title != "" {
		merged.Title = incoming.Title
	}
	if incoming.PriceEURCents > 0 {
		merged.PriceEURCents = incoming.PriceEURCents
	}
	if incoming.SourceURL != "" {
		merged.SourceURL = incoming.SourceURL
	}
	if incoming.Description != nil {
		merged.Description = incoming.Description
	}
	if incoming.Rooms != nil {
		merged.Rooms = incoming.Rooms
	}
	if incoming.SizeSqm != nil {
		merged.SizeSqm = incoming.SizeSqm
	}
	if incoming.PetFriendly != nil {
		merged.PetFriendly = incoming.PetFriendly
	}
	if incoming.Furnished != nil {
		merged.Furnished = incoming.Furnished
	}
	if incoming.Geohash != nil {
		merged.Geohash = incoming.Geohash
	}
	if incoming.Latitude != nil {
		merged.Latitude = incoming.Latitude
	}
	if incoming.Longitude != nil {
		merged.Longitude = incoming.Longitude
	}

	merged.DelistedAt = nil
	merged.LastSeenAt = now
	merged.ScrapedAt = incoming.ScrapedAt

	return merged
}

func findForUpdate(ctx context.Context, tx pgx.Tx, site, sourceID string) (*domain.CanonicalListing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE source_site = $1 AND source_id = $2 FOR UPDATE`

	var l domain.CanonicalListing
	err := tx.QueryRow(ctx, query, site, sourceID).Scan(
		&l.ID, &l.SourceSite, &l.SourceID, &l.SourceURL, &l.Title, &l.Description,
		&l.PriceEURCents, &l.PriceType, &l.Rooms, &l.SizeSqm, &l.City, &l.PostalCode,
		&l.CountryCode, &l.Latitude, &l.Longitude, &l.Geohash, &l.PetFriendly, &l.Furnished,
		&l.AvailableFrom, &l.FirstSeenAt, &l.LastSeenAt, &l.DelistedAt, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func insertListing(ctx context.Context, tx pgx.Tx, l domain.CanonicalListing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err := tx.Exec(ctx, query,
		l.ID, l.SourceSite, l.SourceID, l.SourceURL, l.Title, l.Description,
		l.PriceEURCents, l.PriceType, l.Rooms, l.SizeSqm, l.City, l.PostalCode,
		l.CountryCode, l.Latitude, l.Longitude, l.Geohash, l.PetFriendly, l.Furnished,
		l.AvailableFrom, l.FirstSeenAt, l.LastSeenAt, l.DelistedAt, l.CreatedAt,
	)
	return err
}

func updateListing(ctx context.Context, tx pgx.Tx, l domain.CanonicalListing) error {
	query := `
		UPDATE listings
		SET source_url = $2, title = $3, description = $4, price_eur_cents = $5,
		    price_type = $6, rooms = $7, size_sqm = $8, city = $9, postal_code = $10,
		    latitude = $11, longitude = $12, geohash = $13, pet_friendly = $14,
		    furnished = $15, available_from = $16, last_seen_at = $17, delisted_at = $18
		WHERE id = $1
	`
	_, err := tx.Exec(ctx, query,
		l.ID, l.SourceURL, l.Title, l.Description, l.PriceEURCents,
		l.PriceType, l.Rooms, l.SizeSqm, l.City, l.PostalCode,
		l.Latitude, l.Longitude, l.Geohash, l.PetFriendly,
		l.Furnished, l.AvailableFrom, l.LastSeenAt, l.DelistedAt,
	)
	return err
}
