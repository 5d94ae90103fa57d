package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Match Settings
	QuestionsPerMatch   int
	QuestionSeconds     int
	RevealSeconds       int
	ReadyTimeoutSeconds int
	PointsPerCorrect    int
	DefaultRating       int

	// Security
	JWTSecret        string
	TokenExpiryHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/codearena?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Match Settings
		QuestionsPerMatch:   getEnvInt("QUESTIONS_PER_MATCH", 10),
		QuestionSeconds:     getEnvInt("QUESTION_SECONDS", 10),
		RevealSeconds:       getEnvInt("REVEAL_SECONDS", 3),
		ReadyTimeoutSeconds: getEnvInt("READY_TIMEOUT_SECONDS", 60),
		PointsPerCorrect:    getEnvInt("POINTS_PER_CORRECT", 10),
		DefaultRating:       getEnvInt("DEFAULT_RATING", 1200),

		// Security
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		TokenExpiryHours: getEnvInt("TOKEN_EXPIRY_HOURS", 72),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
