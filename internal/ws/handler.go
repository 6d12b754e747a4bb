package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/quizwhiz/backend/internal/config"
)

// newUpgrader builds an upgrader whose origin check honors the configured
// allow-list. Development additionally accepts localhost so the Vite dev
// server can connect.
func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(cfg, r.Header.Get("Origin"))
		},
	}
}

func originAllowed(cfg *config.Config, origin string) bool {
	if origin == "" {
		// Non-browser clients send no Origin header.
		return true
	}
	if cfg.Environment == "development" &&
		(strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
		return true
	}
	for _, allowed := range cfg.Origins() {
		if origin == allowed {
			return true
		}
	}
	return false
}

// runPair runs the two cooperative tasks of a session. The first to finish
// wins: the other is cancelled and unblocked by closing the connection, and
// its exit is awaited so cleanup runs exactly once, afterwards.
func runPair(ctx context.Context, conn *Conn, a, b func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 2)
	go func() { done <- a(ctx) }()
	go func() { done <- b(ctx) }()

	err := <-done
	cancel()
	conn.Close()
	<-done
	return err
}
