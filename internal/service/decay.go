package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ladder-tracker/internal/config"
	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/lock"
	"ladder-tracker/internal/rating"
	"ladder-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// DecayService applies inactivity decay to established players. One
// transaction per player; a failure for one player never aborts the rest,
// and the batch is interruptible between players.
type DecayService struct {
	db               *sql.DB
	players          *repository.PlayerRepository
	history          *repository.RatingHistoryRepository
	locks            *lock.KeyedMutex
	defaultThreshold int
	logger           zerolog.Logger
}

func NewDecayService(db *sql.DB, players *repository.PlayerRepository, history *repository.RatingHistoryRepository, locks *lock.KeyedMutex, cfg *config.Config, logger zerolog.Logger) *DecayService {
	threshold := cfg.DecayThresholdDays
	if threshold <= 0 {
		threshold = constants.DecayThresholdDays
	}
	return &DecayService{db: db, players: players, history: history, locks: locks, defaultThreshold: threshold, logger: logger}
}

// ApplyInactivityDecay scans for established, above-floor players whose
// last match is older than daysThreshold days and decays each one. The
// scan is only a candidate list: each player's state is re-read under
// their row lock before anything is written, so a match landing after the
// scan wins.
func (s *DecayService) ApplyInactivityDecay(ctx context.Context, daysThreshold int) (*domain.DecaySummary, error) {
	if daysThreshold <= 0 {
		daysThreshold = s.defaultThreshold
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -daysThreshold)

	candidates, err := s.players.ListInactive(ctx, cutoff, constants.ProvisionalGames, constants.RatingFloor)
	if err != nil {
		return nil, fmt.Errorf("failed to list decay candidates: %w", err)
	}

	summary := &domain.DecaySummary{Scanned: len(candidates)}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			// Already-committed players stand; report what was done.
			s.logger.Warn().Err(err).Int("decayed", summary.Decayed).Msg("decay batch interrupted")
			return summary, err
		}

		decayed, err := s.decayOne(ctx, c.PlayerID, cutoff, now)
		if err != nil {
			summary.Errors++
			s.logger.Error().Err(err).Str("player_id", c.PlayerID).Msg("failed to decay player")
			continue
		}
		if decayed == nil {
			continue
		}

		summary.Decayed++
		summary.Players = append(summary.Players, *decayed)
		s.logger.Info().
			Str("player_id", decayed.PlayerID).
			Int("old_rating", decayed.OldRating).
			Int("new_rating", decayed.NewRating).
			Msg("player rating decayed")
	}

	s.logger.Info().
		Int("scanned", summary.Scanned).
		Int("decayed", summary.Decayed).
		Int("errors", summary.Errors).
		Msg("decay batch completed")
	return summary, nil
}

// decayOne re-reads the player under their row lock and decays them if
// they are still inactive. Returns nil when the candidate no longer
// qualifies.
func (s *DecayService) decayOne(ctx context.Context, playerID string, cutoff, now time.Time) (*domain.DecayedPlayer, error) {
	lockCtx, cancel := context.WithTimeout(ctx, constants.LockAcquireTimeout)
	defer cancel()
	if err := s.locks.Acquire(lockCtx, playerID); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLockContention, playerID)
	}
	defer s.locks.Release(playerID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	players := s.players.WithTx(tx)
	p, err := players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	// The candidate may have played, dropped below the floor, or been
	// decayed already since the scan.
	if p.LastMatchAt == nil || !p.LastMatchAt.Before(cutoff) {
		return nil, nil
	}
	if !p.Established(constants.ProvisionalGames) || p.Rating <= constants.RatingFloor {
		return nil, nil
	}

	daysInactive := int(now.Sub(*p.LastMatchAt).Hours() / 24)
	newRating := rating.Decay(p.Rating, daysInactive)
	if newRating == p.Rating {
		return nil, nil
	}

	if err := players.UpdateRating(ctx, playerID, newRating); err != nil {
		return nil, err
	}
	if err := s.history.WithTx(tx).Insert(ctx, &domain.RatingHistoryEntry{
		PlayerID:  playerID,
		OldRating: p.Rating,
		NewRating: newRating,
		Change:    newRating - p.Rating,
		Reason:    domain.ReasonDecay,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.DecayedPlayer{PlayerID: playerID, OldRating: p.Rating, NewRating: newRating}, nil
}
