package service

import (
	"context"

	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// StatisticsService owns the population-wide percentile recompute. It runs
// after every processed match and can also be invoked on a schedule.
type StatisticsService struct {
	players *repository.PlayerRepository
	logger  zerolog.Logger
}

func NewStatisticsService(players *repository.PlayerRepository, logger zerolog.Logger) *StatisticsService {
	return &StatisticsService{players: players, logger: logger}
}

// RecomputePercentiles recalculates ranking_percentile for every player
// with at least the provisional number of games:
// 100 * (peers with rating <= mine - 1) / (qualifying peers - 1).
// Players below the threshold keep no percentile.
func (s *StatisticsService) RecomputePercentiles(ctx context.Context) error {
	qualifying, err := s.players.ListQualifying(ctx, constants.ProvisionalGames)
	if err != nil {
		return err
	}

	n := len(qualifying)
	if n == 0 {
		return nil
	}

	// qualifying is rating-ascending; countLE[i] is the number of peers
	// whose rating is <= qualifying[i].Rating.
	for i := 0; i < n; i++ {
		countLE := i + 1
		for countLE < n && qualifying[countLE].Rating == qualifying[i].Rating {
			countLE++
		}

		percentile := 100.0
		if n > 1 {
			percentile = 100 * float64(countLE-1) / float64(n-1)
		}
		if err := s.players.UpdatePercentile(ctx, qualifying[i].PlayerID, percentile); err != nil {
			return err
		}
	}

	s.logger.Debug().Int("qualifying_players", n).Msg("percentiles recomputed")
	return nil
}
