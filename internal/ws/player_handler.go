package ws

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quizwhiz/backend/internal/config"
	"github.com/quizwhiz/backend/internal/game"
	"github.com/quizwhiz/backend/internal/store"
)

// HandlePlayerWS serves GET /ws/game/:code/:name. It validates the player,
// takes the durable player mutex by writing a fresh token to websocket_id,
// runs the question/interrupt task pair and releases the mutex on exit if
// this session still owns it.
func HandlePlayerWS(st store.Store, engine *game.Engine, cfg *config.Config) gin.HandlerFunc {
	upgrader := newUpgrader(cfg)
	return func(c *gin.Context) {
		code := strings.ToUpper(c.Param("code"))
		name := c.Param("name")

		wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed for player %s/%s: %v", code, name, err)
			return
		}
		conn := newConn(wsConn)
		defer conn.Close()

		// The session outlives the HTTP request; use a background context.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if _, err := st.GetGame(ctx, code); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				conn.Send(game.TokenGameNotFound)
			} else {
				log.Printf("[WS] game lookup failed for %s: %v", code, err)
			}
			return
		}

		players, err := st.GetPlayers(ctx, code)
		if err != nil {
			log.Printf("[WS] players lookup failed for %s: %v", code, err)
			return
		}
		player, ok := players[name]
		if !ok {
			conn.Send(game.TokenUserNotInGame)
			return
		}
		if player.WebsocketID != nil {
			// A live session already owns this player. Racing reconnects
			// are resolved last-writer-wins below, but a plainly live
			// token is rejected here.
			conn.Send(game.TokenUserAlreadyConnected)
			return
		}

		token := uuid.NewString()
		player.WebsocketID = &token
		players[name] = player
		if err := st.PutPlayers(ctx, code, players); err != nil {
			log.Printf("[WS] failed to acquire player mutex for %s/%s: %v", code, name, err)
			return
		}
		defer releasePlayerMutex(st, code, name, token)

		log.Printf("[WS] player %s connected to game %s", name, code)

		err = runPair(ctx, conn,
			func(ctx context.Context) error { return engine.RunPlayerQuestions(ctx, conn, code, name) },
			func(ctx context.Context) error { return engine.RunStateInterrupts(ctx, conn, code) },
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WS] player session %s/%s ended: %v", code, name, err)
		} else {
			log.Printf("[WS] player %s disconnected from game %s", name, code)
		}
	}
}

// releasePlayerMutex clears websocket_id only while token still owns it, so
// a predecessor's cleanup cannot tear down a reconnected session.
func releasePlayerMutex(st store.Store, code, name, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	players, err := st.GetPlayers(ctx, code)
	if err != nil {
		log.Printf("[WS] mutex release: players lookup failed for %s: %v", code, err)
		return
	}
	player, ok := players[name]
	if !ok || player.WebsocketID == nil || *player.WebsocketID != token {
		return
	}
	player.WebsocketID = nil
	players[name] = player
	if err := st.PutPlayers(ctx, code, players); err != nil {
		log.Printf("[WS] mutex release failed for %s/%s: %v", code, name, err)
	}
}
