// Package stats computes the pure counter transition a single match
// outcome applies to a player. It owns no storage; the orchestrator loads
// the prior state and persists the result.
package stats

import (
	"fmt"

	"ladder-tracker/internal/domain"
)

// PlayerOutcome is a match result from one player's point of view.
type PlayerOutcome string

const (
	OutcomeWin  PlayerOutcome = "win"
	OutcomeLoss PlayerOutcome = "loss"
	OutcomeDraw PlayerOutcome = "draw"
)

// ForPlayer projects a match outcome onto one of the two participants.
func ForPlayer(outcome domain.Outcome, isPlayer1 bool) PlayerOutcome {
	switch outcome {
	case domain.OutcomeDraw:
		return OutcomeDraw
	case domain.OutcomePlayer1Wins:
		if isPlayer1 {
			return OutcomeWin
		}
		return OutcomeLoss
	default:
		if isPlayer1 {
			return OutcomeLoss
		}
		return OutcomeWin
	}
}

// HistoryReason maps a per-player outcome to its rating history tag.
func (o PlayerOutcome) HistoryReason() domain.HistoryReason {
	switch o {
	case OutcomeWin:
		return domain.ReasonWin
	case OutcomeLoss:
		return domain.ReasonLoss
	default:
		return domain.ReasonDraw
	}
}

// Counters is the mutable statistics slice of a player row.
type Counters struct {
	GamesPlayed          int
	GamesWon             int
	GamesLost            int
	GamesDrawn           int
	CurrentStreak        int
	LongestWinStreak     int
	TotalPlaytimeSeconds int64
	AvgMovesPerGame      float64
}

// FromPlayer extracts the counters from a loaded player row.
func FromPlayer(p *domain.Player) Counters {
	return Counters{
		GamesPlayed:          p.GamesPlayed,
		GamesWon:             p.GamesWon,
		GamesLost:            p.GamesLost,
		GamesDrawn:           p.GamesDrawn,
		CurrentStreak:        p.CurrentStreak,
		LongestWinStreak:     p.LongestWinStreak,
		TotalPlaytimeSeconds: p.TotalPlaytimeSeconds,
		AvgMovesPerGame:      p.AvgMovesPerGame,
	}
}

// Apply produces the next counter state after one match. The running move
// average is recomputed as a weighted mean from the prior average and the
// prior games count, so no running sum is stored. A draw leaves the streak
// unchanged.
func Apply(prev Counters, outcome PlayerOutcome, durationSeconds, moveCount int) (Counters, error) {
	next := prev
	next.GamesPlayed++

	switch outcome {
	case OutcomeWin:
		next.GamesWon++
		if prev.CurrentStreak >= 0 {
			next.CurrentStreak = prev.CurrentStreak + 1
		} else {
			next.CurrentStreak = 1
		}
	case OutcomeLoss:
		next.GamesLost++
		if prev.CurrentStreak <= 0 {
			next.CurrentStreak = prev.CurrentStreak - 1
		} else {
			next.CurrentStreak = -1
		}
	case OutcomeDraw:
		next.GamesDrawn++
	default:
		return Counters{}, fmt.Errorf("unknown outcome %q", outcome)
	}

	if next.CurrentStreak > next.LongestWinStreak {
		next.LongestWinStreak = next.CurrentStreak
	}

	next.TotalPlaytimeSeconds += int64(durationSeconds)
	next.AvgMovesPerGame = (prev.AvgMovesPerGame*float64(prev.GamesPlayed) + float64(moveCount)) / float64(next.GamesPlayed)

	return next, nil
}
