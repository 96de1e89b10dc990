package service

import (
	"context"
	"fmt"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/rating"
	"ladder-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PredictionService composes the rating engine with stored history into a
// pure read: win probabilities, per-outcome deltas and head-to-head counts
// for a prospective match. Nothing is mutated.
type PredictionService struct {
	players *repository.PlayerRepository
	matches *repository.MatchRepository
	logger  zerolog.Logger
}

func NewPredictionService(players *repository.PlayerRepository, matches *repository.MatchRepository, logger zerolog.Logger) *PredictionService {
	return &PredictionService{players: players, matches: matches, logger: logger}
}

func (s *PredictionService) Predict(ctx context.Context, player1ID, player2ID string) (*domain.MatchPrediction, error) {
	if player1ID == player2ID {
		return nil, domain.NewValidationError("playerId", "a player cannot be predicted against themselves")
	}

	g, gCtx := errgroup.WithContext(ctx)
	var player1, player2 *domain.Player
	var h2h repository.HeadToHead

	g.Go(func() error {
		var err error
		player1, err = s.players.Get(gCtx, player1ID)
		if err != nil {
			return fmt.Errorf("player1 %s: %w", player1ID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		player2, err = s.players.Get(gCtx, player2ID)
		if err != nil {
			return fmt.Errorf("player2 %s: %w", player2ID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		h2h, err = s.matches.HeadToHead(gCtx, player1ID, player2ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	winA, draw, winB := rating.WinProbabilities(player1.Rating, player2.Rating)

	deltas1, deltas2, err := outcomeDeltas(player1, player2)
	if err != nil {
		return nil, err
	}

	return &domain.MatchPrediction{
		Player1ID:       player1.ID,
		Player2ID:       player2.ID,
		Player1Rating:   player1.Rating,
		Player2Rating:   player2.Rating,
		Player1WinProb:  winA,
		Player2WinProb:  winB,
		DrawProb:        draw,
		Player1Deltas:   deltas1,
		Player2Deltas:   deltas2,
		HeadToHeadTotal: h2h.Total,
		Player1H2HWins:  h2h.Player1Wins,
		Player2H2HWins:  h2h.Player2Wins,
		HeadToHeadDraws: h2h.Draws,
	}, nil
}

// outcomeDeltas computes each player's rating change under all three
// possible outcomes.
func outcomeDeltas(player1, player2 *domain.Player) (domain.OutcomeDeltas, domain.OutcomeDeltas, error) {
	s1 := rating.PlayerState{Rating: player1.Rating, GamesPlayed: player1.GamesPlayed}
	s2 := rating.PlayerState{Rating: player2.Rating, GamesPlayed: player2.GamesPlayed}

	var d1, d2 domain.OutcomeDeltas

	c1, c2, err := rating.NewRatings(s1, s2, domain.OutcomePlayer1Wins)
	if err != nil {
		return d1, d2, err
	}
	d1.Win, d2.Loss = c1.Change, c2.Change

	c1, c2, err = rating.NewRatings(s1, s2, domain.OutcomePlayer2Wins)
	if err != nil {
		return d1, d2, err
	}
	d1.Loss, d2.Win = c1.Change, c2.Change

	c1, c2, err = rating.NewRatings(s1, s2, domain.OutcomeDraw)
	if err != nil {
		return d1, d2, err
	}
	d1.Draw, d2.Draw = c1.Change, c2.Change

	return d1, d2, nil
}
