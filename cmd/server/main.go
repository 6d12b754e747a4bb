package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/quizwhiz/backend/internal/ai"
	"github.com/quizwhiz/backend/internal/api"
	"github.com/quizwhiz/backend/internal/avatar"
	"github.com/quizwhiz/backend/internal/config"
	"github.com/quizwhiz/backend/internal/game"
	"github.com/quizwhiz/backend/internal/quiz"
	"github.com/quizwhiz/backend/internal/redis"
	"github.com/quizwhiz/backend/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	st := store.NewRedis(rdb, cfg.GameExpiryMinutes)

	// AI provider: question generation and hints
	aiClient := ai.NewClient(cfg)
	if cfg.GroqAPIKey == "" {
		log.Printf("[AI] GROQ_API_KEY not set - game creation and hints will fail")
	}

	loader := quiz.NewLoader(aiClient)
	avatars := avatar.NewClient()
	engine := game.NewEngine(st, aiClient, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	api.SetupRoutes(router, st, engine, loader, avatars, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting QuizWhiz server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
