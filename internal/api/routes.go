package api

import (
	"github.com/gin-gonic/gin"

	"github.com/quizwhiz/backend/internal/api/handlers"
	"github.com/quizwhiz/backend/internal/config"
	"github.com/quizwhiz/backend/internal/game"
	"github.com/quizwhiz/backend/internal/middleware"
	"github.com/quizwhiz/backend/internal/store"
	"github.com/quizwhiz/backend/internal/ws"
)

// SetupRoutes configures all API and WebSocket routes
func SetupRoutes(router *gin.Engine, st store.Store, engine *game.Engine, loader handlers.QuestionLoader, avatars handlers.AvatarResolver, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", handlers.HealthCheck)
		apiGroup.POST("/creategame", handlers.CreateGame(st, loader))
		apiGroup.POST("/joingame/:game_code", handlers.JoinGame(st, avatars))
	}

	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/game/:code/:name", ws.HandlePlayerWS(st, engine, cfg))
		wsGroup.GET("/host/:code", ws.HandleHostWS(st, engine, cfg))
		wsGroup.GET("/metrics/:code", ws.HandleMetricsWS(st, engine, cfg))
	}
}
