package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizwhiz/backend/internal/models"
)

// redisStore implements Store over a Redis client. Values are JSON documents
// replaced wholesale on every write. When expiry > 0 each write refreshes the
// key TTL so abandoned games eventually disappear.
type redisStore struct {
	rdb    *redis.Client
	expiry time.Duration
}

// NewRedis returns a Store backed by rdb. expiryMinutes <= 0 disables key
// expiry.
func NewRedis(rdb *redis.Client, expiryMinutes int) Store {
	var expiry time.Duration
	if expiryMinutes > 0 {
		expiry = time.Duration(expiryMinutes) * time.Minute
	}
	return &redisStore{rdb: rdb, expiry: expiry}
}

func (s *redisStore) get(ctx context.Context, key string, out any) error {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) put(ctx context.Context, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, s.expiry).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) GetGame(ctx context.Context, code string) (*models.Game, error) {
	var game models.Game
	if err := s.get(ctx, gameKey(code), &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *redisStore) PutGame(ctx context.Context, code string, game *models.Game) error {
	return s.put(ctx, gameKey(code), game)
}

func (s *redisStore) GetPlayers(ctx context.Context, code string) (models.Players, error) {
	players := models.Players{}
	if err := s.get(ctx, playersKey(code), &players); err != nil {
		if err == ErrNotFound {
			return models.Players{}, nil
		}
		return nil, err
	}
	return players, nil
}

func (s *redisStore) PutPlayers(ctx context.Context, code string, players models.Players) error {
	return s.put(ctx, playersKey(code), players)
}

func (s *redisStore) GetState(ctx context.Context, code string) (models.GameState, error) {
	raw, err := s.rdb.Get(ctx, stateKey(code)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", stateKey(code), err)
	}
	return models.GameState(raw), nil
}

func (s *redisStore) PutState(ctx context.Context, code string, state models.GameState) error {
	if err := s.rdb.Set(ctx, stateKey(code), string(state), s.expiry).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", stateKey(code), err)
	}
	return nil
}

func (s *redisStore) GetAICache(ctx context.Context, code string) (models.AICache, error) {
	cache := models.AICache{}
	if err := s.get(ctx, aiCacheKey(code), &cache); err != nil {
		if err == ErrNotFound {
			return models.AICache{}, nil
		}
		return nil, err
	}
	return cache, nil
}

func (s *redisStore) PutAICache(ctx context.Context, code string, cache models.AICache) error {
	return s.put(ctx, aiCacheKey(code), cache)
}
