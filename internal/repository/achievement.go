package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ladder-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type AchievementRepository struct {
	q      DBTX
	logger zerolog.Logger
}

func NewAchievementRepository(sqlDB *sql.DB, logger zerolog.Logger) *AchievementRepository {
	return &AchievementRepository{q: sqlDB, logger: logger}
}

func (r *AchievementRepository) WithTx(tx *sql.Tx) *AchievementRepository {
	return &AchievementRepository{q: tx, logger: r.logger}
}

// ListDefinitions returns all seeded achievement definitions, id ascending
// for deterministic evaluation order.
func (r *AchievementRepository) ListDefinitions(ctx context.Context) ([]domain.Achievement, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, description, category, condition_type, condition_value, points
		FROM achievements
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievement definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Category, &a.ConditionType, &a.ConditionValue, &a.Points); err != nil {
			return nil, err
		}
		defs = append(defs, a)
	}
	return defs, rows.Err()
}

// EarnedSet returns the ids of achievements the player already holds.
func (r *AchievementRepository) EarnedSet(ctx context.Context, playerID string) (map[string]bool, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT achievement_id FROM player_achievements WHERE player_id = ?`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievements for %s: %w", playerID, err)
	}
	defer rows.Close()

	earned := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		earned[id] = true
	}
	return earned, rows.Err()
}

// Award creates the (player, achievement) fact. The primary key makes a
// duplicate award fail rather than double-insert.
func (r *AchievementRepository) Award(ctx context.Context, pa *domain.PlayerAchievement) error {
	earnedAt := pa.EarnedAt
	if earnedAt.IsZero() {
		earnedAt = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO player_achievements (player_id, achievement_id, earned_at, progress)
		VALUES (?, ?, ?, ?)`,
		pa.PlayerID, pa.AchievementID, earnedAt, pa.Progress)
	if err != nil {
		return fmt.Errorf("failed to award %s to %s: %w", pa.AchievementID, pa.PlayerID, err)
	}
	r.logger.Info().
		Str("player_id", pa.PlayerID).
		Str("achievement_id", pa.AchievementID).
		Msg("achievement awarded")
	return nil
}

// ListEarned returns the full achievement definitions a player holds.
func (r *AchievementRepository) ListEarned(ctx context.Context, playerID string) ([]domain.Achievement, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT a.id, a.name, a.description, a.category, a.condition_type, a.condition_value, a.points
		FROM player_achievements pa
		JOIN achievements a ON a.id = pa.achievement_id
		WHERE pa.player_id = ?
		ORDER BY pa.earned_at`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievements for %s: %w", playerID, err)
	}
	defer rows.Close()

	var defs []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Category, &a.ConditionType, &a.ConditionValue, &a.Points); err != nil {
			return nil, err
		}
		defs = append(defs, a)
	}
	return defs, rows.Err()
}
