// Package achievement decides which not-yet-earned achievements a player
// qualifies for after a processed match. Each condition type has its own
// evaluator, registered in a lookup table, so adding a kind never touches
// the orchestrator.
package achievement

import (
	"context"
	"time"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/stats"

	"github.com/rs/zerolog"
)

// Condition types understood by the built-in evaluators.
const (
	CondTotalWins     = "total_wins"
	CondWinStreak     = "win_streak"
	CondGamesPlayed   = "games_played"
	CondRatingReached = "rating_reached"
	CondFastWin       = "fast_win"
	CondLongWin       = "long_win"
	CondDailyStreak   = "daily_streak"
	CondPerfectWeek   = "perfect_week"
	CondComebackWins  = "comeback_wins"
)

// HistoryScanner provides the match-history reads some conditions need.
// Inside a processing unit it is backed by the unit's transaction, so the
// match being processed is visible to the scans.
type HistoryScanner interface {
	MatchDays(ctx context.Context, playerID string, limit int) ([]string, error)
	RecentRecord(ctx context.Context, playerID string, since time.Time) (total, wins int, err error)
	CountComebackWins(ctx context.Context, playerID string) (int, error)
}

// EvalContext is the state one player's conditions are evaluated against:
// the already-updated player row plus the match just completed.
type EvalContext struct {
	Player  *domain.Player
	Outcome stats.PlayerOutcome
	Match   *domain.Match
	History HistoryScanner
}

// Evaluator reports whether one definition's condition now holds.
type Evaluator func(ctx context.Context, def domain.Achievement, ec *EvalContext) (bool, error)

type Registry struct {
	evaluators map[string]Evaluator
	logger     zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	r := &Registry{
		evaluators: make(map[string]Evaluator),
		logger:     logger,
	}
	r.Register(CondTotalWins, evalTotalWins)
	r.Register(CondWinStreak, evalWinStreak)
	r.Register(CondGamesPlayed, evalGamesPlayed)
	r.Register(CondRatingReached, evalRatingReached)
	r.Register(CondFastWin, evalFastWin)
	r.Register(CondLongWin, evalLongWin)
	r.Register(CondDailyStreak, evalDailyStreak)
	r.Register(CondPerfectWeek, evalPerfectWeek)
	r.Register(CondComebackWins, evalComebackWins)
	return r
}

func (r *Registry) Register(conditionType string, ev Evaluator) {
	r.evaluators[conditionType] = ev
}

// Evaluate walks the definitions not yet in earned and returns those whose
// condition now holds. An unknown condition type is logged and treated as
// never-true so unsupported kinds cannot block match processing. Scanner
// failures propagate and abort the enclosing unit.
func (r *Registry) Evaluate(ctx context.Context, defs []domain.Achievement, earned map[string]bool, ec *EvalContext) ([]domain.Achievement, error) {
	var unlocked []domain.Achievement
	for _, def := range defs {
		if earned[def.ID] {
			continue
		}
		ev, ok := r.evaluators[def.ConditionType]
		if !ok {
			r.logger.Warn().
				Str("achievement_id", def.ID).
				Str("condition_type", def.ConditionType).
				Msg("unknown achievement condition type, skipping")
			continue
		}
		hit, err := ev(ctx, def, ec)
		if err != nil {
			return nil, err
		}
		if hit {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked, nil
}

func evalTotalWins(_ context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	return ec.Player.GamesWon >= def.ConditionValue, nil
}

func evalWinStreak(_ context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	return ec.Player.CurrentStreak >= def.ConditionValue, nil
}

func evalGamesPlayed(_ context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	return ec.Player.GamesPlayed >= def.ConditionValue, nil
}

func evalRatingReached(_ context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	return ec.Player.Rating >= def.ConditionValue, nil
}

func evalFastWin(_ context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	return ec.Outcome == stats.OutcomeWin && ec.Match.DurationSeconds <= def.ConditionValue, nil
}

func evalLongWin(_ context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	return ec.Outcome == stats.OutcomeWin && ec.Match.DurationSeconds >= def.ConditionValue, nil
}

func evalDailyStreak(ctx context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	days, err := ec.History.MatchDays(ctx, ec.Player.ID, def.ConditionValue+1)
	if err != nil {
		return false, err
	}
	return consecutiveDays(days) >= def.ConditionValue, nil
}

func evalPerfectWeek(ctx context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	since := ec.Match.PlayedAt.AddDate(0, 0, -7)
	total, wins, err := ec.History.RecentRecord(ctx, ec.Player.ID, since)
	if err != nil {
		return false, err
	}
	return total >= def.ConditionValue && wins == total, nil
}

func evalComebackWins(ctx context.Context, def domain.Achievement, ec *EvalContext) (bool, error) {
	n, err := ec.History.CountComebackWins(ctx, ec.Player.ID)
	if err != nil {
		return false, err
	}
	return n >= def.ConditionValue, nil
}

// consecutiveDays counts the run of consecutive calendar days at the head
// of a most-recent-first list of "2006-01-02" dates.
func consecutiveDays(days []string) int {
	if len(days) == 0 {
		return 0
	}
	prev, err := time.Parse("2006-01-02", days[0])
	if err != nil {
		return 0
	}
	run := 1
	for _, d := range days[1:] {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			break
		}
		if !prev.AddDate(0, 0, -1).Equal(t) {
			break
		}
		run++
		prev = t
	}
	return run
}
