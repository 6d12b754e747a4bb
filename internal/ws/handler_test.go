package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwhiz/backend/internal/config"
	"github.com/quizwhiz/backend/internal/game"
	"github.com/quizwhiz/backend/internal/models"
	"github.com/quizwhiz/backend/internal/store"
)

func TestOriginAllowed(t *testing.T) {
	cfg := &config.Config{
		Environment:    "production",
		AllowedOrigins: []string{"https://quiz.example.com"},
	}

	assert.True(t, originAllowed(cfg, ""), "non-browser clients send no Origin")
	assert.True(t, originAllowed(cfg, "https://quiz.example.com"))
	assert.False(t, originAllowed(cfg, "https://evil.example.com"))
	assert.False(t, originAllowed(cfg, "http://localhost:5173"), "localhost is not allowed in production")

	dev := &config.Config{Environment: "development"}
	assert.True(t, originAllowed(dev, "http://localhost:5173"))
	assert.True(t, originAllowed(dev, "http://127.0.0.1:5173"))
	assert.False(t, originAllowed(dev, "https://evil.example.com"))
}

type wsFixture struct {
	st     store.Store
	engine *game.Engine
	server *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	engine := game.NewEngine(st, nil, nil)
	engine.StatePollInterval = 5 * time.Millisecond
	engine.MetricsInterval = 10 * time.Millisecond
	engine.DrainTimeout = time.Millisecond
	cfg := &config.Config{Environment: "development"}

	router := gin.New()
	router.GET("/ws/game/:code/:name", HandlePlayerWS(st, engine, cfg))
	router.GET("/ws/host/:code", HandleHostWS(st, engine, cfg))
	router.GET("/ws/metrics/:code", HandleMetricsWS(st, engine, cfg))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &wsFixture{st: st, engine: engine, server: server}
}

func (f *wsFixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func (f *wsFixture) seedGame(t *testing.T, code string, state models.GameState) {
	t.Helper()
	ctx := context.Background()
	g := &models.Game{
		Code: code,
		Questions: []models.Question{
			{Question: "What is 2+2?", Options: map[string]string{"A": "3", "B": "4"}, Answer: "B"},
		},
	}
	require.NoError(t, f.st.PutGame(ctx, code, g))
	require.NoError(t, f.st.PutPlayers(ctx, code, models.Players{}))
	require.NoError(t, f.st.PutState(ctx, code, state))
}

func TestPlayerWSUnknownGame(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "/ws/game/ZZZZZ/alice")
	assert.Equal(t, game.TokenGameNotFound, readText(t, conn))
}

func TestPlayerWSUnknownPlayer(t *testing.T) {
	f := newWSFixture(t)
	f.seedGame(t, "ABCDE", models.StateWaiting)

	conn := f.dial(t, "/ws/game/ABCDE/mallory")
	assert.Equal(t, game.TokenUserNotInGame, readText(t, conn))
}

func TestPlayerWSRejectsSecondConnection(t *testing.T) {
	f := newWSFixture(t)
	f.seedGame(t, "ABCDE", models.StateWaiting)
	ctx := context.Background()
	players, err := f.st.GetPlayers(ctx, "ABCDE")
	require.NoError(t, err)
	players["alice"] = models.NewPlayer("id-a", []int{0}, nil)
	require.NoError(t, f.st.PutPlayers(ctx, "ABCDE", players))

	first := f.dial(t, "/ws/game/ABCDE/alice")
	defer first.Close()

	// The mutex must be held before the second dial races it.
	require.Eventually(t, func() bool {
		players, err := f.st.GetPlayers(ctx, "ABCDE")
		return err == nil && players["alice"].WebsocketID != nil
	}, 2*time.Second, 5*time.Millisecond)

	second := f.dial(t, "/ws/game/ABCDE/alice")
	assert.Equal(t, game.TokenUserAlreadyConnected, readText(t, second))
}

func TestPlayerWSReleasesMutexOnDisconnect(t *testing.T) {
	f := newWSFixture(t)
	f.seedGame(t, "ABCDE", models.StateWaiting)
	ctx := context.Background()
	players, err := f.st.GetPlayers(ctx, "ABCDE")
	require.NoError(t, err)
	players["alice"] = models.NewPlayer("id-a", []int{0}, nil)
	require.NoError(t, f.st.PutPlayers(ctx, "ABCDE", players))

	conn := f.dial(t, "/ws/game/ABCDE/alice")
	require.Eventually(t, func() bool {
		players, err := f.st.GetPlayers(ctx, "ABCDE")
		return err == nil && players["alice"].WebsocketID != nil
	}, 2*time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		players, err := f.st.GetPlayers(ctx, "ABCDE")
		return err == nil && players["alice"].WebsocketID == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHostWSUnknownGame(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "/ws/host/ZZZZZ")
	assert.Equal(t, game.TokenGameNotFound, readText(t, conn))
}

func TestHostWSSingleHostAndLifecycle(t *testing.T) {
	f := newWSFixture(t)
	f.seedGame(t, "ABCDE", models.StateWaiting)

	host := f.dial(t, "/ws/host/ABCDE")

	// On attach: [WAITING] plus the initial metrics snapshot, in either order.
	frames := []string{readText(t, host), readText(t, host)}
	assert.Contains(t, frames, game.TokenWaiting)

	second := f.dial(t, "/ws/host/ABCDE")
	assert.Equal(t, game.TokenHostAlreadyConnected, readText(t, second))

	require.NoError(t, host.WriteMessage(websocket.TextMessage, []byte("start")))
	require.Eventually(t, func() bool {
		state, err := f.st.GetState(context.Background(), "ABCDE")
		return err == nil && state == models.StateStarted
	}, 2*time.Second, 5*time.Millisecond)

	// Disconnect frees the host slot for a successor.
	host.Close()
	require.Eventually(t, func() bool {
		return !f.engine.Hosts.Held("ABCDE")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMetricsWSIsReadOnlyAndDoesNotTakeHostSlot(t *testing.T) {
	f := newWSFixture(t)
	f.seedGame(t, "ABCDE", models.StateWaiting)

	metrics := f.dial(t, "/ws/metrics/ABCDE")
	frame := readText(t, metrics)
	assert.Contains(t, frame, "metrics")

	// A host can still attach while the metrics channel is open.
	host := f.dial(t, "/ws/host/ABCDE")
	frames := []string{readText(t, host), readText(t, host)}
	assert.Contains(t, frames, game.TokenWaiting)
}
