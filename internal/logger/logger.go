package logger

import (
	"os"

	"ladder-tracker/internal/config"

	"github.com/rs/zerolog"
)

// New builds the root logger at the configured level; unparseable levels
// fall back to info.
func New(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		return logger.Level(lvl)
	}
	return logger.Level(zerolog.InfoLevel)
}
