package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ladder-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	q      DBTX
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{q: sqlDB, logger: logger}
}

// WithTx returns a copy of the repository scoped to tx.
func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{q: tx, logger: r.logger}
}

const playerColumns = `id, display_name, rating, games_played, games_won, games_lost, games_drawn,
	current_streak, longest_win_streak, total_playtime_seconds, avg_moves_per_game,
	ranking_percentile, last_match_at, created_at, updated_at`

func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	return scanPlayer(row)
}

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO players (id, display_name, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.DisplayName, p.Rating, now, now)
	if err != nil {
		return fmt.Errorf("failed to create player %s: %w", p.ID, err)
	}
	r.logger.Debug().Str("player_id", p.ID).Int("rating", p.Rating).Msg("player created")
	return nil
}

// Update persists the full mutable slice of a player row.
func (r *PlayerRepository) Update(ctx context.Context, p *domain.Player) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE players SET
			rating = ?, games_played = ?, games_won = ?, games_lost = ?, games_drawn = ?,
			current_streak = ?, longest_win_streak = ?, total_playtime_seconds = ?,
			avg_moves_per_game = ?, last_match_at = ?, updated_at = ?
		WHERE id = ?`,
		p.Rating, p.GamesPlayed, p.GamesWon, p.GamesLost, p.GamesDrawn,
		p.CurrentStreak, p.LongestWinStreak, p.TotalPlaytimeSeconds,
		p.AvgMovesPerGame, nullTime(p.LastMatchAt), time.Now().UTC(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update player %s: %w", p.ID, domain.ErrPlayerNotFound)
	}
	return nil
}

// UpdateRating changes only the rating column; used by the decay job.
func (r *PlayerRepository) UpdateRating(ctx context.Context, id string, rating int) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE players SET rating = ?, updated_at = ? WHERE id = ?`,
		rating, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update rating for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update rating for %s: %w", id, domain.ErrPlayerNotFound)
	}
	return nil
}

// QualifyingRating is one entry of the percentile population.
type QualifyingRating struct {
	PlayerID string
	Rating   int
}

// ListQualifying returns players eligible for a ranking percentile, rating
// ascending.
func (r *PlayerRepository) ListQualifying(ctx context.Context, minGames int) ([]QualifyingRating, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, rating FROM players WHERE games_played >= ? ORDER BY rating ASC, id ASC`, minGames)
	if err != nil {
		return nil, fmt.Errorf("failed to list qualifying players: %w", err)
	}
	defer rows.Close()

	var result []QualifyingRating
	for rows.Next() {
		var qr QualifyingRating
		if err := rows.Scan(&qr.PlayerID, &qr.Rating); err != nil {
			return nil, err
		}
		result = append(result, qr)
	}
	return result, rows.Err()
}

func (r *PlayerRepository) UpdatePercentile(ctx context.Context, id string, percentile float64) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE players SET ranking_percentile = ? WHERE id = ?`, percentile, id)
	if err != nil {
		return fmt.Errorf("failed to update percentile for %s: %w", id, err)
	}
	return nil
}

// InactiveCandidate is a player eligible for inactivity decay.
type InactiveCandidate struct {
	PlayerID    string
	Rating      int
	GamesPlayed int
	LastMatchAt time.Time
}

// ListInactive returns established, above-floor players whose last match
// is older than cutoff.
func (r *PlayerRepository) ListInactive(ctx context.Context, cutoff time.Time, minGames, floor int) ([]InactiveCandidate, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, rating, games_played, last_match_at
		FROM players
		WHERE games_played >= ? AND rating > ? AND last_match_at IS NOT NULL AND last_match_at < ?
		ORDER BY id`,
		minGames, floor, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive players: %w", err)
	}
	defer rows.Close()

	var result []InactiveCandidate
	for rows.Next() {
		var c InactiveCandidate
		if err := rows.Scan(&c.PlayerID, &c.Rating, &c.GamesPlayed, &c.LastMatchAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Top returns the leaderboard projection: qualifying players ranked by
// rating.
func (r *PlayerRepository) Top(ctx context.Context, minGames, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, display_name, rating, games_won, games_played
		FROM players
		WHERE games_played >= ?
		ORDER BY rating DESC, games_won DESC, id ASC
		LIMIT ?`,
		minGames, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		var e domain.LeaderboardEntry
		var gamesPlayed int
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.Rating, &e.Wins, &gamesPlayed); err != nil {
			return nil, err
		}
		e.Rank = rank
		if gamesPlayed > 0 {
			e.WinPercentage = float64(e.Wins) / float64(gamesPlayed) * 100
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanPlayer(row *sql.Row) (*domain.Player, error) {
	var p domain.Player
	var percentile sql.NullFloat64
	var lastMatch sql.NullTime

	err := row.Scan(&p.ID, &p.DisplayName, &p.Rating, &p.GamesPlayed, &p.GamesWon,
		&p.GamesLost, &p.GamesDrawn, &p.CurrentStreak, &p.LongestWinStreak,
		&p.TotalPlaytimeSeconds, &p.AvgMovesPerGame, &percentile, &lastMatch,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}

	if percentile.Valid {
		p.RankingPercentile = &percentile.Float64
	}
	if lastMatch.Valid {
		t := lastMatch.Time
		p.LastMatchAt = &t
	}
	return &p, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
