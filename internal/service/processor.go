package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ladder-tracker/internal/achievement"
	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/database"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/lock"
	"ladder-tracker/internal/notify"
	"ladder-tracker/internal/rating"
	"ladder-tracker/internal/repository"
	"ladder-tracker/internal/stats"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// ProcessorService is the single entry point a completed match flows
// through: rating engine, statistics aggregator, achievement evaluator and
// all writes, as one atomic unit per match.
type ProcessorService struct {
	db           *sql.DB
	players      *repository.PlayerRepository
	matches      *repository.MatchRepository
	history      *repository.RatingHistoryRepository
	achievements *repository.AchievementRepository
	registry     *achievement.Registry
	locks        *lock.KeyedMutex
	stats        *StatisticsService
	notifier     *notify.Notifier
	logger       zerolog.Logger
}

func NewProcessorService(
	db *sql.DB,
	players *repository.PlayerRepository,
	matches *repository.MatchRepository,
	history *repository.RatingHistoryRepository,
	achievements *repository.AchievementRepository,
	registry *achievement.Registry,
	statsSvc *StatisticsService,
	notifier *notify.Notifier,
	locks *lock.KeyedMutex,
	logger zerolog.Logger,
) *ProcessorService {
	return &ProcessorService{
		db:           db,
		players:      players,
		matches:      matches,
		history:      history,
		achievements: achievements,
		registry:     registry,
		locks:        locks,
		stats:        statsSvc,
		notifier:     notifier,
		logger:       logger,
	}
}

// ProcessMatch validates and applies one completed match. Both players'
// ratings, counters, history rows and achievement awards commit together
// or not at all. Reprocessing the same matchId returns
// domain.ErrMatchAlreadyProcessed and changes nothing.
func (s *ProcessorService) ProcessMatch(ctx context.Context, result *domain.MatchResult) (*domain.MatchSummary, error) {
	p1Moves, p2Moves, err := validateMatchResult(result)
	if err != nil {
		return nil, err
	}

	// The accepted result is immutable; default the timestamp locally.
	playedAt := result.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}

	s.logger.Info().
		Str("match_id", result.MatchID).
		Str("player1_id", result.Player1ID).
		Str("player2_id", result.Player2ID).
		Str("outcome", string(result.Outcome())).
		Msg("processing match")

	// Both player rows are the unit of mutual exclusion; take them in
	// ascending id order so matches sharing a pair cannot deadlock.
	lockCtx, cancel := context.WithTimeout(ctx, constants.LockAcquireTimeout)
	defer cancel()
	release, err := s.locks.AcquireAll(lockCtx, result.Player1ID, result.Player2ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s vs %s", domain.ErrLockContention, result.Player1ID, result.Player2ID)
	}
	defer release()

	var summary *domain.MatchSummary
	backoff := retry.WithMaxRetries(constants.BusyRetryAttempts, retry.NewExponential(constants.BusyRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		summary, err = s.processOnce(ctx, result, p1Moves, p2Moves, playedAt)
		if database.IsBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	// Percentiles are a derived view; recompute outside the unit and only
	// log a failure.
	if err := s.stats.RecomputePercentiles(ctx); err != nil {
		s.logger.Error().Err(err).Str("match_id", result.MatchID).Msg("failed to recompute percentiles")
	}

	go s.notifier.PublishMatchCompleted(summary)

	s.logger.Info().
		Str("match_id", result.MatchID).
		Int("player1_change", summary.Player1.Change).
		Int("player2_change", summary.Player2.Change).
		Int("achievements", len(summary.Player1Achievements)+len(summary.Player2Achievements)).
		Msg("match processed")

	return summary, nil
}

func (s *ProcessorService) processOnce(ctx context.Context, result *domain.MatchResult, p1Moves, p2Moves int, playedAt time.Time) (*domain.MatchSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	matches := s.matches.WithTx(tx)
	players := s.players.WithTx(tx)
	history := s.history.WithTx(tx)
	achievements := s.achievements.WithTx(tx)

	// matchId is the idempotency key.
	exists, err := matches.Exists(ctx, result.MatchID)
	if err != nil {
		return nil, err
	}
	if !exists {
		exists, err = history.ExistsForMatch(ctx, result.MatchID)
		if err != nil {
			return nil, err
		}
	}
	if exists {
		return nil, fmt.Errorf("match %s: %w", result.MatchID, domain.ErrMatchAlreadyProcessed)
	}

	player1, err := players.Get(ctx, result.Player1ID)
	if err != nil {
		return nil, fmt.Errorf("player1 %s: %w", result.Player1ID, err)
	}
	player2, err := players.Get(ctx, result.Player2ID)
	if err != nil {
		return nil, fmt.Errorf("player2 %s: %w", result.Player2ID, err)
	}

	outcome := result.Outcome()
	change1, change2, err := rating.NewRatings(
		rating.PlayerState{Rating: player1.Rating, GamesPlayed: player1.GamesPlayed},
		rating.PlayerState{Rating: player2.Rating, GamesPlayed: player2.GamesPlayed},
		outcome,
	)
	if err != nil {
		return nil, err
	}

	match := &domain.Match{
		MatchID:         result.MatchID,
		Player1ID:       result.Player1ID,
		Player2ID:       result.Player2ID,
		WinnerID:        result.WinnerID,
		DurationSeconds: result.DurationSeconds,
		MatchType:       result.MatchType,
		Player1Moves:    p1Moves,
		Player2Moves:    p2Moves,
		PlayedAt:        playedAt,
	}
	if err := matches.Insert(ctx, match); err != nil {
		return nil, err
	}

	p1Outcome := stats.ForPlayer(outcome, true)
	p2Outcome := stats.ForPlayer(outcome, false)
	summary := &domain.MatchSummary{MatchID: result.MatchID}

	summary.Player1, err = s.recordForPlayer(ctx, players, history, player1, change1, p1Outcome, match, p1Moves)
	if err != nil {
		return nil, err
	}
	summary.Player2, err = s.recordForPlayer(ctx, players, history, player2, change2, p2Outcome, match, p2Moves)
	if err != nil {
		return nil, err
	}

	// Achievements run only after both participants' rows are written, so
	// history-scanning conditions see the full match whichever seat the
	// player sat in.
	scanner := &txHistoryScanner{matches: matches}
	summary.Player1Achievements, err = s.evaluateForPlayer(ctx, achievements, scanner, player1, p1Outcome, match)
	if err != nil {
		return nil, err
	}
	summary.Player2Achievements, err = s.evaluateForPlayer(ctx, achievements, scanner, player2, p2Outcome, match)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit match %s: %w", result.MatchID, err)
	}
	return summary, nil
}

// recordForPlayer appends one participant's history row and persists their
// updated rating and counters against the unit's transaction.
func (s *ProcessorService) recordForPlayer(
	ctx context.Context,
	players *repository.PlayerRepository,
	history *repository.RatingHistoryRepository,
	player *domain.Player,
	change rating.Change,
	outcome stats.PlayerOutcome,
	match *domain.Match,
	moveCount int,
) (domain.PlayerRatingChange, error) {
	if err := history.Insert(ctx, &domain.RatingHistoryEntry{
		PlayerID:  player.ID,
		MatchID:   match.MatchID,
		OldRating: change.OldRating,
		NewRating: change.NewRating,
		Change:    change.Change,
		Reason:    outcome.HistoryReason(),
		CreatedAt: match.PlayedAt,
	}); err != nil {
		return domain.PlayerRatingChange{}, err
	}

	next, err := stats.Apply(stats.FromPlayer(player), outcome, match.DurationSeconds, moveCount)
	if err != nil {
		return domain.PlayerRatingChange{}, err
	}

	player.Rating = change.NewRating
	player.GamesPlayed = next.GamesPlayed
	player.GamesWon = next.GamesWon
	player.GamesLost = next.GamesLost
	player.GamesDrawn = next.GamesDrawn
	player.CurrentStreak = next.CurrentStreak
	player.LongestWinStreak = next.LongestWinStreak
	player.TotalPlaytimeSeconds = next.TotalPlaytimeSeconds
	player.AvgMovesPerGame = next.AvgMovesPerGame
	playedAt := match.PlayedAt
	player.LastMatchAt = &playedAt

	if err := players.Update(ctx, player); err != nil {
		return domain.PlayerRatingChange{}, err
	}

	return domain.PlayerRatingChange{
		PlayerID:  player.ID,
		OldRating: change.OldRating,
		NewRating: change.NewRating,
		Change:    change.Change,
	}, nil
}

// evaluateForPlayer runs the achievement pass for one participant and
// awards what unlocked.
func (s *ProcessorService) evaluateForPlayer(
	ctx context.Context,
	achievements *repository.AchievementRepository,
	scanner achievement.HistoryScanner,
	player *domain.Player,
	outcome stats.PlayerOutcome,
	match *domain.Match,
) ([]domain.Achievement, error) {
	defs, err := achievements.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := achievements.EarnedSet(ctx, player.ID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.registry.Evaluate(ctx, defs, earned, &achievement.EvalContext{
		Player:  player,
		Outcome: outcome,
		Match:   match,
		History: scanner,
	})
	if err != nil {
		return nil, err
	}

	for _, def := range unlocked {
		if err := achievements.Award(ctx, &domain.PlayerAchievement{
			PlayerID:      player.ID,
			AchievementID: def.ID,
			EarnedAt:      match.PlayedAt,
			Progress:      100,
		}); err != nil {
			return nil, err
		}
	}
	return unlocked, nil
}

// txHistoryScanner adapts the tx-scoped match repository to the evaluator
// interface, so historical scans see the match being processed.
type txHistoryScanner struct {
	matches *repository.MatchRepository
}

func (t *txHistoryScanner) MatchDays(ctx context.Context, playerID string, limit int) ([]string, error) {
	return t.matches.MatchDays(ctx, playerID, limit)
}

func (t *txHistoryScanner) RecentRecord(ctx context.Context, playerID string, since time.Time) (int, int, error) {
	rec, err := t.matches.RecentRecord(ctx, playerID, since)
	return rec.Total, rec.Wins, err
}

func (t *txHistoryScanner) CountComebackWins(ctx context.Context, playerID string) (int, error) {
	return t.matches.CountComebackWins(ctx, playerID)
}

func validateMatchResult(result *domain.MatchResult) (p1Moves, p2Moves int, err error) {
	if result.MatchID == "" {
		return 0, 0, domain.NewValidationError("matchId", "must not be empty")
	}
	if result.Player1ID == "" || result.Player2ID == "" {
		return 0, 0, domain.NewValidationError("playerId", "must not be empty")
	}
	if result.Player1ID == result.Player2ID {
		return 0, 0, domain.NewValidationError("playerId", "a player cannot play against themselves")
	}
	if result.WinnerID != "" && result.WinnerID != result.Player1ID && result.WinnerID != result.Player2ID {
		return 0, 0, domain.NewValidationError("winnerId", "winner must be one of the participants")
	}
	if result.DurationSeconds < constants.MinMatchDuration || result.DurationSeconds > constants.MaxMatchDuration {
		return 0, 0, domain.NewValidationError("durationSeconds",
			fmt.Sprintf("must be between %d and %d", constants.MinMatchDuration, constants.MaxMatchDuration))
	}
	for i, move := range result.MoveHistory {
		switch move.PlayerID {
		case result.Player1ID:
			p1Moves++
		case result.Player2ID:
			p2Moves++
		default:
			return 0, 0, domain.NewValidationError("moveHistory",
				fmt.Sprintf("move %d references unknown player %q", i, move.PlayerID))
		}
	}
	return p1Moves, p2Moves, nil
}
