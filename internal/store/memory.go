package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/quizwhiz/backend/internal/models"
)

// MemoryStore is an in-process Store used by tests and by local development
// without a Redis instance. Values round-trip through JSON so readers get
// snapshots with the same copy semantics as the Redis store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) get(key string, out any) error {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) put(key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetGame(ctx context.Context, code string) (*models.Game, error) {
	var game models.Game
	if err := s.get(gameKey(code), &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *MemoryStore) PutGame(ctx context.Context, code string, game *models.Game) error {
	return s.put(gameKey(code), game)
}

func (s *MemoryStore) GetPlayers(ctx context.Context, code string) (models.Players, error) {
	players := models.Players{}
	if err := s.get(playersKey(code), &players); err != nil {
		if err == ErrNotFound {
			return models.Players{}, nil
		}
		return nil, err
	}
	return players, nil
}

func (s *MemoryStore) PutPlayers(ctx context.Context, code string, players models.Players) error {
	return s.put(playersKey(code), players)
}

func (s *MemoryStore) GetState(ctx context.Context, code string) (models.GameState, error) {
	var state models.GameState
	if err := s.get(stateKey(code), &state); err != nil {
		return "", err
	}
	return state, nil
}

func (s *MemoryStore) PutState(ctx context.Context, code string, state models.GameState) error {
	return s.put(stateKey(code), state)
}

func (s *MemoryStore) GetAICache(ctx context.Context, code string) (models.AICache, error) {
	cache := models.AICache{}
	if err := s.get(aiCacheKey(code), &cache); err != nil {
		if err == ErrNotFound {
			return models.AICache{}, nil
		}
		return nil, err
	}
	return cache, nil
}

func (s *MemoryStore) PutAICache(ctx context.Context, code string, cache models.AICache) error {
	return s.put(aiCacheKey(code), cache)
}
