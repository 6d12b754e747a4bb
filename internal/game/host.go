package game

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/quizwhiz/backend/internal/models"
)

// hostMetricsEnvelope is the periodic snapshot pushed to the host.
type hostMetricsEnvelope struct {
	GameData      models.GameHeader        `json:"game_data"`
	PlayerMetrics map[string]PlayerMetrics `json:"player_metrics"`
}

// RunHostControl serves the host's interactive command stream until the game
// ends or the connection drops. Commands are single words, case-insensitive;
// anything outside the transition table gets [INVALID_COMMAND] and no store
// mutation.
func (e *Engine) RunHostControl(ctx context.Context, conn Conn, code string) error {
	state, err := e.store.GetState(ctx, code)
	if err != nil {
		return err
	}
	if state == models.StateWaiting {
		if err := conn.Send(TokenWaiting); err != nil {
			return err
		}
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg, err := conn.Receive()
		if err != nil {
			return err
		}
		cmd := strings.ToLower(strings.TrimSpace(msg))

		// Read-modify-write: fetch current state, validate the
		// transition, write, then reply.
		state, err := e.store.GetState(ctx, code)
		if err != nil {
			return err
		}

		switch {
		case cmd == "start" && state == models.StateWaiting:
			if err := e.markStarted(ctx, code); err != nil {
				return err
			}
			if err := e.store.PutState(ctx, code, models.StateStarted); err != nil {
				return err
			}
			if err := conn.Send(TokenStart); err != nil {
				return err
			}

		case cmd == "pause" && state == models.StateStarted:
			if err := e.store.PutState(ctx, code, models.StatePaused); err != nil {
				return err
			}
			if err := conn.Send(TokenPause); err != nil {
				return err
			}

		case cmd == "resume" && state == models.StatePaused:
			if err := e.store.PutState(ctx, code, models.StateStarted); err != nil {
				return err
			}
			if err := conn.Send(TokenResume); err != nil {
				return err
			}

		case cmd == "end":
			if state == models.StateEnded {
				return nil
			}
			if err := e.store.PutState(ctx, code, models.StateEnded); err != nil {
				return err
			}
			conn.Send(TokenEnd)
			return nil

		default:
			if err := conn.Send(TokenInvalidCommand); err != nil {
				return err
			}
		}
	}
}

// markStarted stamps the game header's start time on first start. The header
// is fetched immediately before the write so an intervening writer does not
// lose the question list.
func (e *Engine) markStarted(ctx context.Context, code string) error {
	game, err := e.store.GetGame(ctx, code)
	if err != nil {
		return err
	}
	if game.StartTime != nil {
		return nil
	}
	now := e.now()
	game.StartTime = &now
	return e.store.PutGame(ctx, code, game)
}

// RunHostMetrics pushes per-player metrics snapshots to the host: an
// immediate one on attach so reconnecting hosts see state instantly, then
// one per tick while the game is running or whenever the roster changed
// since the last emitted tick.
func (e *Engine) RunHostMetrics(ctx context.Context, conn Conn, code string) error {
	players, err := e.store.GetPlayers(ctx, code)
	if err != nil {
		return err
	}
	if err := conn.SendJSON(map[string]any{"metrics": Aggregate(players)}); err != nil {
		return err
	}
	lastCount := len(players)

	ticker := time.NewTicker(e.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		state, err := e.store.GetState(ctx, code)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return err
		}
		players, err := e.store.GetPlayers(ctx, code)
		if err != nil {
			return err
		}
		if state != models.StateStarted && len(players) == lastCount {
			continue
		}

		game, err := e.store.GetGame(ctx, code)
		if err != nil {
			if isNotFound(err) {
				log.Printf("[GAME] metrics: header missing for %s", code)
				return nil
			}
			return err
		}

		snapshot := hostMetricsEnvelope{
			GameData:      game.Header(),
			PlayerMetrics: Aggregate(players),
		}
		if err := conn.SendJSON(map[string]any{"metrics": snapshot}); err != nil {
			return err
		}
		lastCount = len(players)
	}
}
