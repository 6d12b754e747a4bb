package handlers

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quizwhiz/backend/internal/models"
	"github.com/quizwhiz/backend/internal/quiz"
	"github.com/quizwhiz/backend/internal/store"
)

// AvatarResolver maps a player name to an avatar URL. Lookups are
// best-effort: errors leave the avatar null.
type AvatarResolver interface {
	Lookup(ctx context.Context, username string) (string, error)
}

// QuestionLoader produces a question list from a user prompt.
type QuestionLoader interface {
	Load(ctx context.Context, userPrompt string) ([]models.Question, error)
}

var _ QuestionLoader = (*quiz.Loader)(nil)

// CreateGame handles POST /api/creategame?user_prompt=<text>. It generates a
// game code, loads a question set for the prompt and initializes the store
// records with state WAITING.
func CreateGame(st store.Store, loader QuestionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userPrompt := strings.TrimSpace(c.Query("user_prompt"))

		questions, err := loader.Load(c.Request.Context(), userPrompt)
		if err != nil {
			log.Printf("[API] quiz load failed for prompt %q: %v", userPrompt, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Error loading quiz file",
			})
			return
		}

		code := generateGameCode()
		ctx := c.Request.Context()

		game := &models.Game{Code: code, Questions: questions}
		if err := st.PutGame(ctx, code, game); err != nil {
			log.Printf("[API] failed to store game %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create game"})
			return
		}
		if err := st.PutPlayers(ctx, code, models.Players{}); err != nil {
			log.Printf("[API] failed to init players for %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create game"})
			return
		}
		if err := st.PutState(ctx, code, models.StateWaiting); err != nil {
			log.Printf("[API] failed to init state for %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create game"})
			return
		}

		log.Printf("[API] game %s created (%d questions)", code, len(questions))
		c.JSON(http.StatusOK, gin.H{
			"game_code": code,
			"message":   "Game created",
		})
	}
}

// JoinGame handles POST /api/joingame/:game_code?player_name=<name>. A name
// already present with a live connection is rejected; a present-but-idle
// name is treated as a reconnect and the record is left untouched.
func JoinGame(st store.Store, avatars AvatarResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := strings.ToUpper(c.Param("game_code"))
		name := strings.TrimSpace(c.Query("player_name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "player_name required"})
			return
		}

		ctx := c.Request.Context()

		game, err := st.GetGame(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Game not found"})
				return
			}
			log.Printf("[API] game lookup failed for %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to join game"})
			return
		}

		players, err := st.GetPlayers(ctx, code)
		if err != nil {
			log.Printf("[API] players lookup failed for %s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to join game"})
			return
		}

		if existing, ok := players[name]; ok {
			if existing.WebsocketID != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Player already in game"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Player reconnected"})
			return
		}

		var avatarURL *string
		if avatars != nil {
			if url, err := avatars.Lookup(ctx, name); err == nil {
				avatarURL = &url
			} else {
				log.Printf("[API] avatar lookup failed for %s: %v", name, err)
			}
		}

		queue := rand.Perm(len(game.Questions))
		players[name] = models.NewPlayer(uuid.NewString(), queue, avatarURL)
		if err := st.PutPlayers(ctx, code, players); err != nil {
			log.Printf("[API] failed to register player %s in %s: %v", name, code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to join game"})
			return
		}

		log.Printf("[API] player %s joined game %s", name, code)
		c.JSON(http.StatusOK, gin.H{
			"message":     "Joined game",
			"game_code":   code,
			"player_name": name,
		})
	}
}
