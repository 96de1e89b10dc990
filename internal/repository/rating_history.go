package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ladder-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type RatingHistoryRepository struct {
	q      DBTX
	logger zerolog.Logger
}

func NewRatingHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingHistoryRepository {
	return &RatingHistoryRepository{q: sqlDB, logger: logger}
}

func (r *RatingHistoryRepository) WithTx(tx *sql.Tx) *RatingHistoryRepository {
	return &RatingHistoryRepository{q: tx, logger: r.logger}
}

// Insert appends one history row. Rows are never mutated afterwards.
func (r *RatingHistoryRepository) Insert(ctx context.Context, e *domain.RatingHistoryEntry) error {
	id := e.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	matchID := any(nil)
	if e.MatchID != "" {
		matchID = e.MatchID
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO rating_history (id, player_id, match_id, old_rating, new_rating, change, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.PlayerID, matchID, e.OldRating, e.NewRating, e.Change, string(e.Reason), createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert rating history for %s: %w", e.PlayerID, err)
	}
	e.ID = id
	return nil
}

// ExistsForMatch reports whether any history row references the match;
// the orchestrator uses it as a second idempotency check.
func (r *RatingHistoryRepository) ExistsForMatch(ctx context.Context, matchID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rating_history WHERE match_id = ?`, matchID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check rating history for match %s: %w", matchID, err)
	}
	return n > 0, nil
}

func (r *RatingHistoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]domain.RatingHistoryEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, player_id, COALESCE(match_id, ''), old_rating, new_rating, change, reason, created_at
		FROM rating_history
		WHERE player_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating history for %s: %w", playerID, err)
	}
	defer rows.Close()

	var entries []domain.RatingHistoryEntry
	for rows.Next() {
		var e domain.RatingHistoryEntry
		var reason string
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.MatchID, &e.OldRating, &e.NewRating, &e.Change, &reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Reason = domain.HistoryReason(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LatestChange returns the most recent rating delta for a player, or 0 if
// the player has no history yet.
func (r *RatingHistoryRepository) LatestChange(ctx context.Context, playerID string) (int, error) {
	var change int
	err := r.q.QueryRowContext(ctx, `
		SELECT change FROM rating_history
		WHERE player_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, playerID).Scan(&change)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest change for %s: %w", playerID, err)
	}
	return change, nil
}
