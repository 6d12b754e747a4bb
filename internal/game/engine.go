package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/quizwhiz/backend/internal/config"
	"github.com/quizwhiz/backend/internal/models"
	"github.com/quizwhiz/backend/internal/store"
)

// HintProvider produces a short natural-language hint for a wrong answer.
type HintProvider interface {
	Hint(ctx context.Context, question, correct, wrong string) (string, error)
}

// Engine drives game sessions: the host command and metrics loops and the
// per-player question loop. All shared state lives in the store; the engine
// itself only holds configuration, the hint provider and the in-process host
// registry.
type Engine struct {
	store store.Store
	hints HintProvider
	Hosts *HostRegistry

	MaxPoints   int
	TimeLimit   time.Duration
	MaxAttempts int

	// Loop cadences; overridable in tests.
	StatePollInterval time.Duration
	MetricsInterval   time.Duration
	DrainTimeout      time.Duration

	now func() time.Time
}

// NewEngine builds an engine over st. hints may be nil, in which case wrong
// answers simply get no help frame.
func NewEngine(st store.Store, hints HintProvider, cfg *config.Config) *Engine {
	e := &Engine{
		store:             st,
		hints:             hints,
		Hosts:             NewHostRegistry(),
		MaxPoints:         DefaultMaxPoints,
		TimeLimit:         DefaultTimeLimit,
		MaxAttempts:       DefaultMaxAttempts,
		StatePollInterval: 500 * time.Millisecond,
		MetricsInterval:   time.Second,
		DrainTimeout:      100 * time.Millisecond,
		now:               time.Now,
	}
	if cfg != nil {
		if cfg.QuestionMaxPoints > 0 {
			e.MaxPoints = cfg.QuestionMaxPoints
		}
		if cfg.QuestionTimeLimitSecs > 0 {
			e.TimeLimit = time.Duration(cfg.QuestionTimeLimitSecs) * time.Second
		}
		if cfg.QuestionMaxAttempts > 0 {
			e.MaxAttempts = cfg.QuestionMaxAttempts
		}
	}
	return e
}

// updatePlayer re-reads the players record, applies mutate to one player and
// writes the record back. The store offers no compare-and-swap, so the
// re-read keeps the window for lost sibling updates as small as possible.
func (e *Engine) updatePlayer(ctx context.Context, code, name string, mutate func(*models.Player)) (models.Player, error) {
	players, err := e.store.GetPlayers(ctx, code)
	if err != nil {
		return models.Player{}, err
	}
	p, ok := players[name]
	if !ok {
		return models.Player{}, fmt.Errorf("player %q missing from game %s", name, code)
	}
	mutate(&p)
	players[name] = p
	if err := e.store.PutPlayers(ctx, code, players); err != nil {
		return models.Player{}, err
	}
	return p, nil
}

// hint returns the hint for (questionIndex, wrongKey), consulting the
// per-game cache first. Provider failures are not fatal: the caller just
// skips the help frame.
func (e *Engine) hint(ctx context.Context, code string, questionIndex int, wrongKey string, q models.Question) (string, bool) {
	cache, err := e.store.GetAICache(ctx, code)
	if err != nil {
		log.Printf("[GAME] ai cache read failed for %s: %v", code, err)
		cache = models.AICache{}
	}
	if hint, ok := cache.Get(questionIndex, wrongKey); ok {
		return hint, true
	}

	if e.hints == nil {
		return "", false
	}
	hint, err := e.hints.Hint(ctx, q.Question, q.Options[q.Answer], q.Options[wrongKey])
	if err != nil {
		log.Printf("[GAME] hint unavailable for %s q%d: %v", code, questionIndex, err)
		return "", false
	}

	// Whole-value write; a lost concurrent write just means a re-fetch on
	// the next miss.
	cache.Put(questionIndex, wrongKey, hint)
	if err := e.store.PutAICache(ctx, code, cache); err != nil {
		log.Printf("[GAME] ai cache write failed for %s: %v", code, err)
	}
	return hint, true
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isNotFound reports whether err is the store's missing-record error.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
