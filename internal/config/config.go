package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Redis
	RedisURL string

	// Server
	Port           string
	FrontendURL    string
	AllowedOrigins []string

	// AI provider (Groq-compatible chat completions API)
	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string

	// Game Settings
	QuestionTimeLimitSecs int
	QuestionMaxAttempts   int
	QuestionMaxPoints     int
	GameExpiryMinutes     int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:           getEnv("APP_PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", nil),

		// AI provider
		GroqAPIKey:  getEnv("GROQ_API_KEY", ""),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   getEnv("GROQ_MODEL", "llama3-8b-8192"),

		// Game Settings
		QuestionTimeLimitSecs: getEnvInt("QUESTION_TIME_LIMIT_SECONDS", 30),
		QuestionMaxAttempts:   getEnvInt("QUESTION_MAX_ATTEMPTS", 2),
		QuestionMaxPoints:     getEnvInt("QUESTION_MAX_POINTS", 1000),
		GameExpiryMinutes:     getEnvInt("GAME_EXPIRY_MINUTES", 0),
	}
}

// Origins returns the CORS/WebSocket origin allow-list. Falls back to the
// frontend URL when ALLOWED_ORIGINS is not set.
func (c *Config) Origins() []string {
	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins
	}
	if c.FrontendURL != "" {
		return []string{c.FrontendURL}
	}
	return nil
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
