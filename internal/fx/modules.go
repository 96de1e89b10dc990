package fx

import (
	"ladder-tracker/internal/achievement"
	"ladder-tracker/internal/config"
	"ladder-tracker/internal/database"
	"ladder-tracker/internal/lock"
	"ladder-tracker/internal/logger"
	"ladder-tracker/internal/notify"
	"ladder-tracker/internal/repository"
	"ladder-tracker/internal/server"
	"ladder-tracker/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(config.Load),
	fx.Provide(logger.New),
	fx.Provide(database.New),
	// one mutex instance: match processing and decay serialize on the
	// same player rows
	fx.Provide(lock.NewKeyedMutex),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewRatingHistoryRepository),
	fx.Provide(repository.NewAchievementRepository),
	// evaluator registry + notifier
	fx.Provide(achievement.NewRegistry),
	fx.Provide(notify.New),
	// svc
	fx.Provide(service.NewStatisticsService),
	fx.Provide(service.NewProcessorService),
	fx.Provide(service.NewDecayService),
	fx.Provide(service.NewPredictionService),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewPlayerService),
	// server
	fx.Provide(server.NewLadderServer),
)
