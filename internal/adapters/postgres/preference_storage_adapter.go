package postgres_adapter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// PostgresPreferenceStorage reads saved search preferences.
type PostgresPreferenceStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresPreferenceStorage(pool *pgxpool.Pool) (*PostgresPreferenceStorage, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresPreferenceStorage{pool: pool}, nil
}

// ActiveByCity returns active preferences for a city. The comparison is
// case-insensitive so stored user input does not need normalizing.
func (s *PostgresPreferenceStorage) ActiveByCity(ctx context.Context, city string) ([]domain.Preference, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresPreferenceStorage",
		"method":    "ActiveByCity",
		"city":      city,
	})

	query := `
		SELECT id, user_id, city, country_code, min_price_eur_cents, max_price_eur_cents,
		       min_rooms, max_rooms, min_size_sqm, max_size_sqm,
		       pet_friendly, furnished, keywords, is_active
		FROM preferences
		WHERE is_active = TRUE AND lower(city) = lower($1)
	`
	rows, err := s.pool.Query(ctx, query, city)
	if err != nil {
		logger.Error("Failed to query preferences", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query preferences for %s: %w", city, err)
	}
	defer rows.Close()

	var prefs []domain.Preference
	for rows.Next() {
		var p domain.Preference
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.City, &p.CountryCode, &p.MinPrice, &p.MaxPrice,
			&p.MinRooms, &p.MaxRooms, &p.MinSizeSqm, &p.MaxSizeSqm,
			&p.PetFriendly, &p.Furnished, &p.Keywords, &p.IsActive,
		); err != nil {
			logger.Error("Failed to scan preference row", err, nil)
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error during preference iteration", err, nil)
		return nil, fmt.Errorf("error during preference iteration: %w", err)
	}

	logger.Debug("Loaded active preferences", port.Fields{"count": len(prefs)})
	return prefs, nil
}
