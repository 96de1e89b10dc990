package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ladder-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	q      DBTX
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{q: sqlDB, logger: logger}
}

func (r *MatchRepository) WithTx(tx *sql.Tx) *MatchRepository {
	return &MatchRepository{q: tx, logger: r.logger}
}

func (r *MatchRepository) Insert(ctx context.Context, m *domain.Match) error {
	winner := any(nil)
	if m.WinnerID != "" {
		winner = m.WinnerID
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO matches (match_id, player1_id, player2_id, winner_id, duration_seconds,
			match_type, player1_moves, player2_moves, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID, m.Player1ID, m.Player2ID, winner, m.DurationSeconds,
		m.MatchType, m.Player1Moves, m.Player2Moves, m.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
	}
	return nil
}

func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE match_id = ?`, matchID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check match %s: %w", matchID, err)
	}
	return n > 0, nil
}

// HeadToHead aggregates prior meetings between two players, in either seat
// order.
type HeadToHead struct {
	Total       int
	Player1Wins int
	Player2Wins int
	Draws       int
}

func (r *MatchRepository) HeadToHead(ctx context.Context, player1ID, player2ID string) (HeadToHead, error) {
	var h HeadToHead
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner_id IS NULL THEN 1 ELSE 0 END), 0)
		FROM matches
		WHERE (player1_id = ? AND player2_id = ?) OR (player1_id = ? AND player2_id = ?)`,
		player1ID, player2ID,
		player1ID, player2ID, player2ID, player1ID).
		Scan(&h.Total, &h.Player1Wins, &h.Player2Wins, &h.Draws)
	if err != nil {
		return HeadToHead{}, fmt.Errorf("failed to query head-to-head: %w", err)
	}
	return h, nil
}

// MatchDays returns the distinct calendar days (UTC, most recent first) on
// which the player completed a match.
func (r *MatchRepository) MatchDays(ctx context.Context, playerID string, limit int) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT DISTINCT date(played_at) AS day
		FROM matches
		WHERE player1_id = ? OR player2_id = ?
		ORDER BY day DESC
		LIMIT ?`,
		playerID, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// RecentRecord counts the player's matches and wins since the cutoff.
type RecentRecord struct {
	Total int
	Wins  int
}

func (r *MatchRepository) RecentRecord(ctx context.Context, playerID string, since time.Time) (RecentRecord, error) {
	var rec RecentRecord
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0)
		FROM matches
		WHERE (player1_id = ? OR player2_id = ?) AND played_at >= ?`,
		playerID, playerID, playerID, since).
		Scan(&rec.Total, &rec.Wins)
	if err != nil {
		return RecentRecord{}, fmt.Errorf("failed to query recent record: %w", err)
	}
	return rec, nil
}

// CountComebackWins counts the player's wins where their pre-match rating
// was below the opponent's, using the rating history rows of each match.
func (r *MatchRepository) CountComebackWins(ctx context.Context, playerID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM matches m
		JOIN rating_history me ON me.match_id = m.match_id AND me.player_id = ?
		JOIN rating_history opp ON opp.match_id = m.match_id AND opp.player_id <> ?
		WHERE m.winner_id = ? AND me.old_rating < opp.old_rating`,
		playerID, playerID, playerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count comeback wins: %w", err)
	}
	return n, nil
}
