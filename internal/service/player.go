package service

import (
	"context"

	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/rating"
	"ladder-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// PlayerService covers player registration and the read-side standing
// view.
type PlayerService struct {
	players      *repository.PlayerRepository
	history      *repository.RatingHistoryRepository
	achievements *repository.AchievementRepository
	logger       zerolog.Logger
}

func NewPlayerService(players *repository.PlayerRepository, history *repository.RatingHistoryRepository, achievements *repository.AchievementRepository, logger zerolog.Logger) *PlayerService {
	return &PlayerService{players: players, history: history, achievements: achievements, logger: logger}
}

func (s *PlayerService) Register(ctx context.Context, id, displayName string) (*domain.Player, error) {
	if id == "" {
		return nil, domain.NewValidationError("playerId", "must not be empty")
	}
	player := &domain.Player{
		ID:          id,
		DisplayName: displayName,
		Rating:      constants.DefaultRating,
	}
	if err := s.players.Create(ctx, player); err != nil {
		return nil, err
	}
	return s.players.Get(ctx, id)
}

// Standing is a player's full competitive position.
type Standing struct {
	Player       *domain.Player              `json:"player"`
	Confidence   rating.Interval             `json:"confidence"`
	History      []domain.RatingHistoryEntry `json:"history"`
	Achievements []domain.Achievement        `json:"achievements"`
}

func (s *PlayerService) GetStanding(ctx context.Context, id string) (*Standing, error) {
	player, err := s.players.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.history.ListByPlayer(ctx, id, 20)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.ListEarned(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Standing{
		Player:       player,
		Confidence:   rating.ConfidenceInterval(player.Rating, player.GamesPlayed),
		History:      history,
		Achievements: earned,
	}, nil
}
