package postgres_adapter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// PostgresMatchStorage owns the match table. The (user_id, listing_id)
// unique constraint makes duplicate matching attempts harmless.
type PostgresMatchStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresMatchStorage(pool *pgxpool.Pool) (*PostgresMatchStorage, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresMatchStorage{pool: pool}, nil
}

// Insert writes a match and reports whether a row was actually created.
// A second match for the same (user, listing) pair is silently dropped.
func (s *PostgresMatchStorage) Insert(ctx context.Context, match domain.Match) (bool, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "PostgresMatchStorage",
		"method":     "Insert",
		"user_id":    match.UserID.String(),
		"listing_id": match.ListingID.String(),
	})

	query := `
		INSERT INTO matches (id, user_id, listing_id, preference_id, score, notified, notification_channel, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, listing_id) DO NOTHING
	`
	cmdTag, err := s.pool.Exec(ctx, query,
		match.ID, match.UserID, match.ListingID, match.PreferenceID,
		match.Score, match.Notified, match.NotificationChannel, match.CreatedAt,
	)
	if err != nil {
		logger.Error("Failed to insert match", err, port.Fields{"query": query})
		return false, fmt.Errorf("failed to insert match: %w", err)
	}

	inserted := cmdTag.RowsAffected() > 0
	if !inserted {
		logger.Debug("Match already exists for user and listing, skipping", nil)
	}
	return inserted, nil
}
