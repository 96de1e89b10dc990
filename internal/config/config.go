package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath             string
	ServerPort         string
	LogLevel           string
	WebhookURL         string
	DecayThresholdDays int
}

func Load() (*Config, error) {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	return &Config{
		DBPath:             getEnv("DB_PATH", "ladder.db"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		WebhookURL:         getEnv("WEBHOOK_URL", ""),
		DecayThresholdDays: getEnvInt("DECAY_THRESHOLD_DAYS", 90),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
