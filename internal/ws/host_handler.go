package ws

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quizwhiz/backend/internal/config"
	"github.com/quizwhiz/backend/internal/game"
	"github.com/quizwhiz/backend/internal/store"
)

// HandleHostWS serves GET /ws/host/:code. At most one host connection is
// live per game; the slot is held in the process-local registry. The command
// handler and the metrics pusher run as a cooperative pair on the single
// connection.
func HandleHostWS(st store.Store, engine *game.Engine, cfg *config.Config) gin.HandlerFunc {
	upgrader := newUpgrader(cfg)
	return func(c *gin.Context) {
		code := strings.ToUpper(c.Param("code"))

		wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed for host of %s: %v", code, err)
			return
		}
		conn := newConn(wsConn)
		defer conn.Close()

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

		token, ok := engine.Hosts.Acquire(code)
		if !ok {
			conn.Send(game.TokenHostAlreadyConnected)
			return
		}
		defer engine.Hosts.Release(code, token)

		log.Printf("[WS] host connected to game %s", code)

		err = runPair(ctx, conn,
			func(ctx context.Context) error { return engine.RunHostControl(ctx, conn, code) },
			func(ctx context.Context) error { return engine.RunHostMetrics(ctx, conn, code) },
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WS] host session for %s ended: %v", code, err)
		} else {
			log.Printf("[WS] host disconnected from game %s", code)
		}
	}
}

// HandleMetricsWS serves GET /ws/metrics/:code, the legacy read-only metrics
// channel. It pushes the same snapshots as the host connection but accepts
// no commands and does not take the host slot.
func HandleMetricsWS(st store.Store, engine *game.Engine, cfg *config.Config) gin.HandlerFunc {
	upgrader := newUpgrader(cfg)
	return func(c *gin.Context) {
		code := strings.ToUpper(c.Param("code"))

		wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed for metrics of %s: %v", code, err)
			return
		}
		conn := newConn(wsConn)
		defer conn.Close()

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

		// Watch for the reader exiting so a client disconnect stops the
		// push loop.
		go func() {
			for {
				if _, err := conn.Receive(); err != nil {
					cancel()
					return
				}
			}
		}()

		if err := engine.RunHostMetrics(ctx, conn, code); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WS] metrics session for %s ended: %v", code, err)
		}
	}
}
