package service

import (
	"context"

	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// LeaderboardService is the read-side ranking projection over player rows.
// It is never a source of truth.
type LeaderboardService struct {
	players *repository.PlayerRepository
	history *repository.RatingHistoryRepository
	logger  zerolog.Logger
}

func NewLeaderboardService(players *repository.PlayerRepository, history *repository.RatingHistoryRepository, logger zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{players: players, history: history, logger: logger}
}

// Top returns the ranked qualifying players. RankChange is the direction
// of each player's most recent rating movement: +1 climbing, -1 falling,
// 0 steady.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = constants.DefaultLeaderboardLimit
	}
	if limit > constants.MaxLeaderboardLimit {
		limit = constants.MaxLeaderboardLimit
	}

	entries, err := s.players.Top(ctx, constants.ProvisionalGames, limit)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		change, err := s.history.LatestChange(ctx, entries[i].PlayerID)
		if err != nil {
			return nil, err
		}
		switch {
		case change > 0:
			entries[i].RankChange = 1
		case change < 0:
			entries[i].RankChange = -1
		}
	}

	return entries, nil
}
