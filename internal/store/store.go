package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/quizwhiz/backend/internal/models"
)

// ErrNotFound is returned when a record does not exist for the game code.
var ErrNotFound = errors.New("record not found")

// Store is the typed adapter over the key/value store backing game state.
// Four whole-value records exist per game code: the game header, the players
// map, the lifecycle state and the AI hint cache. All writes are full
// replacements; readers get the latest snapshot.
type Store interface {
	GetGame(ctx context.Context, code string) (*models.Game, error)
	PutGame(ctx context.Context, code string, game *models.Game) error

	// GetPlayers returns an empty map when no players record exists yet.
	GetPlayers(ctx context.Context, code string) (models.Players, error)
	PutPlayers(ctx context.Context, code string, players models.Players) error

	GetState(ctx context.Context, code string) (models.GameState, error)
	PutState(ctx context.Context, code string, state models.GameState) error

	// GetAICache returns an empty cache when no record exists yet.
	GetAICache(ctx context.Context, code string) (models.AICache, error)
	PutAICache(ctx context.Context, code string, cache models.AICache) error
}

func gameKey(code string) string    { return "game:" + code }
func playersKey(code string) string { return fmt.Sprintf("game:%s:players", code) }
func stateKey(code string) string   { return fmt.Sprintf("game:%s:state", code) }
func aiCacheKey(code string) string { return fmt.Sprintf("game:%s:ai_cache", code) }
